package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-hq/vantage/internal/shared"
)

type stubStore struct {
	provisioned bool
	roles       map[int64][]string
	abilities   map[int64][]string
	roleErr     error
	abilityErr  error
}

func newStubStore() *stubStore {
	return &stubStore{
		provisioned: true,
		roles:       make(map[int64][]string),
		abilities:   make(map[int64][]string),
	}
}

func (s *stubStore) Provisioned(ctx context.Context) bool {
	return s.provisioned
}

func (s *stubStore) SubjectHasRole(ctx context.Context, subjectID int64, slug string) (bool, error) {
	if s.roleErr != nil {
		return false, s.roleErr
	}
	for _, held := range s.roles[subjectID] {
		if held == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SubjectHasAbility(ctx context.Context, subjectID int64, ability string) (bool, error) {
	if s.abilityErr != nil {
		return false, s.abilityErr
	}
	for _, held := range s.abilities[subjectID] {
		if held == ability {
			return true, nil
		}
	}
	return false, nil
}

func TestAllowsDeniesNilSubject(t *testing.T) {
	store := newStubStore()
	store.abilities[1] = []string{shared.AbilityViewDashboard}
	eval := NewEvaluator(store)

	allowed, err := eval.Allows(context.Background(), nil, shared.AbilityViewDashboard)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowsDeniesWithoutAbility(t *testing.T) {
	store := newStubStore()
	eval := NewEvaluator(store)

	allowed, err := eval.Allows(context.Background(), SubjectID(1), shared.AbilityManageUsers)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowsGrantsHeldAbility(t *testing.T) {
	store := newStubStore()
	store.abilities[7] = []string{shared.AbilityViewDashboard}
	eval := NewEvaluator(store)

	allowed, err := eval.Allows(context.Background(), SubjectID(7), shared.AbilityViewDashboard)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = eval.Allows(context.Background(), SubjectID(7), shared.AbilityManageRoles)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestUnprovisionedStoreFailsClosed(t *testing.T) {
	store := newStubStore()
	store.provisioned = false
	store.roles[1] = []string{shared.SuperAdminRoleSlug}
	store.abilities[1] = []string{shared.AbilityManageRoles}
	eval := NewEvaluator(store)

	allowed, err := eval.Allows(context.Background(), SubjectID(1), shared.AbilityManageRoles)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = eval.AllowsAction(context.Background(), SubjectID(1), ActionDelete, RoleTarget(3, false))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSuperAdminBypassesPolicies(t *testing.T) {
	store := newStubStore()
	store.roles[1] = []string{shared.SuperAdminRoleSlug}
	eval := NewEvaluator(store)

	// No granted abilities at all; the role alone decides.
	allowed, err := eval.Allows(context.Background(), SubjectID(1), "some-unknown-ability")
	require.NoError(t, err)
	assert.True(t, allowed)

	// Even the system-protection policy yields to the bypass.
	allowed, err = eval.AllowsAction(context.Background(), SubjectID(1), ActionDelete, RoleTarget(2, true))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRoleDeletePolicyProtectsSystemRoles(t *testing.T) {
	store := newStubStore()
	store.abilities[5] = []string{shared.AbilityManageRoles}
	eval := NewEvaluator(store)

	allowed, err := eval.AllowsAction(context.Background(), SubjectID(5), ActionDelete, RoleTarget(9, true))
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = eval.AllowsAction(context.Background(), SubjectID(5), ActionDelete, RoleTarget(9, false))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRolePoliciesRequireManageRoles(t *testing.T) {
	store := newStubStore()
	store.abilities[5] = []string{shared.AbilityViewDashboard}
	eval := NewEvaluator(store)

	for _, action := range []Action{ActionViewAny, ActionView, ActionCreate, ActionUpdate, ActionDelete} {
		allowed, err := eval.AllowsAction(context.Background(), SubjectID(5), action, RoleTarget(4, false))
		require.NoError(t, err)
		assert.False(t, allowed, "action %s", action)
	}
}

func TestUserPoliciesRequireManageUsers(t *testing.T) {
	store := newStubStore()
	store.abilities[5] = []string{shared.AbilityManageUsers}
	eval := NewEvaluator(store)

	allowed, err := eval.AllowsAction(context.Background(), SubjectID(5), ActionDelete, UserTarget(6))
	require.NoError(t, err)
	assert.True(t, allowed)

	delete(store.abilities, 5)
	allowed, err = eval.AllowsAction(context.Background(), SubjectID(5), ActionDelete, UserTarget(6))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestStoreErrorsPropagate(t *testing.T) {
	store := newStubStore()
	store.roleErr = errors.New("connection reset")
	eval := NewEvaluator(store)

	_, err := eval.Allows(context.Background(), SubjectID(1), shared.AbilityManageUsers)
	require.Error(t, err)
}
