package authz

import (
	"context"

	"github.com/vantage-hq/vantage/internal/shared"
)

// Store is the persisted assignment graph the evaluator walks.
type Store interface {
	// Provisioned reports whether the access-control tables exist. Probe
	// failures are reported as false, never as an error.
	Provisioned(ctx context.Context) bool
	// SubjectHasRole reports whether the subject holds a role by slug.
	SubjectHasRole(ctx context.Context, subjectID int64, slug string) (bool, error)
	// SubjectHasAbility reports whether any role held by the subject carries
	// a permission whose slug equals the ability.
	SubjectHasAbility(ctx context.Context, subjectID int64, ability string) (bool, error)
}

// Evaluator answers "may subject S perform ability A on target O". It is a
// pure predicate over current storage state; verdicts are never cached.
type Evaluator struct {
	store Store
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

type policyFunc func(ctx context.Context, e *Evaluator, subjectID int64, target Target) (bool, error)

// policies is the closed set of (action, target-kind) variants. Anything not
// registered here falls back to the plain ability lookup.
var policies = map[TargetKind]map[Action]policyFunc{
	TargetRole: {
		ActionViewAny:     requireAbility(shared.AbilityManageRoles),
		ActionView:        requireAbility(shared.AbilityManageRoles),
		ActionCreate:      requireAbility(shared.AbilityManageRoles),
		ActionUpdate:      requireAbility(shared.AbilityManageRoles),
		ActionDelete:      roleDeletePolicy,
		ActionRestore:     roleDeletePolicy,
		ActionForceDelete: roleDeletePolicy,
	},
	TargetUser: {
		ActionViewAny: requireAbility(shared.AbilityManageUsers),
		ActionView:    requireAbility(shared.AbilityManageUsers),
		ActionCreate:  requireAbility(shared.AbilityManageUsers),
		ActionUpdate:  requireAbility(shared.AbilityManageUsers),
		ActionDelete:  requireAbility(shared.AbilityManageUsers),
	},
}

func requireAbility(ability string) policyFunc {
	return func(ctx context.Context, e *Evaluator, subjectID int64, _ Target) (bool, error) {
		return e.store.SubjectHasAbility(ctx, subjectID, ability)
	}
}

// roleDeletePolicy blocks system-protected roles regardless of who is asking.
// Only the super-admin bypass, which short-circuits before policies run, can
// override it.
func roleDeletePolicy(ctx context.Context, e *Evaluator, subjectID int64, target Target) (bool, error) {
	if target.IsSystem {
		return false, nil
	}
	return e.store.SubjectHasAbility(ctx, subjectID, shared.AbilityManageRoles)
}

// Allows evaluates an ability check with no target.
func (e *Evaluator) Allows(ctx context.Context, subject Subject, ability string) (bool, error) {
	return e.evaluate(ctx, subject, ability, nil)
}

// AllowsAction evaluates an action against a target via the policy table.
func (e *Evaluator) AllowsAction(ctx context.Context, subject Subject, action Action, target Target) (bool, error) {
	return e.evaluate(ctx, subject, string(action), &target)
}

func (e *Evaluator) evaluate(ctx context.Context, subject Subject, ability string, target *Target) (bool, error) {
	if subject == nil {
		return false, nil
	}

	// Missing tables are a valid deployment phase (mid-migration); every
	// check fails closed instead of erroring until provisioning completes.
	if !e.store.Provisioned(ctx) {
		return false, nil
	}

	bypass, err := e.store.SubjectHasRole(ctx, subject.GetID(), shared.SuperAdminRoleSlug)
	if err != nil {
		return false, err
	}
	if bypass {
		return true, nil
	}

	if target != nil {
		if kindPolicies, ok := policies[target.Kind]; ok {
			if policy, ok := kindPolicies[Action(ability)]; ok {
				return policy(ctx, e, subject.GetID(), *target)
			}
		}
	}

	return e.store.SubjectHasAbility(ctx, subject.GetID(), ability)
}
