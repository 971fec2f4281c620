package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-hq/vantage/internal/shared"
)

type stubFinder struct {
	recipient *WelcomeRecipient
	err       error
}

func (s *stubFinder) FindRecipient(ctx context.Context, userID int64) (*WelcomeRecipient, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recipient, nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func welcomeTask(t *testing.T, userID int64) *asynq.Task {
	t.Helper()
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{UserID: userID})
	require.NoError(t, err)
	return task
}

func TestWelcomeEmailDelivered(t *testing.T) {
	sender := &recordingSender{}
	proc := NewWelcomeEmailProcessor(
		&stubFinder{recipient: &WelcomeRecipient{Name: "Ada", Email: "ada@example.com"}},
		sender,
		slog.Default(),
	)

	err := proc.ProcessTask(context.Background(), welcomeTask(t, 7))
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, sender.sent)
}

func TestWelcomeEmailDroppedForMissingUser(t *testing.T) {
	sender := &recordingSender{}
	proc := NewWelcomeEmailProcessor(&stubFinder{err: shared.ErrNotFound}, sender, slog.Default())

	// A deleted user is not a failure; the task must not be retried.
	err := proc.ProcessTask(context.Background(), welcomeTask(t, 7))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestWelcomeEmailRetriesOnSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp unreachable")}
	proc := NewWelcomeEmailProcessor(
		&stubFinder{recipient: &WelcomeRecipient{Name: "Ada", Email: "ada@example.com"}},
		sender,
		slog.Default(),
	)

	err := proc.ProcessTask(context.Background(), welcomeTask(t, 7))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestWelcomeEmailSkipsMalformedPayload(t *testing.T) {
	proc := NewWelcomeEmailProcessor(&stubFinder{}, &recordingSender{}, slog.Default())

	err := proc.ProcessTask(context.Background(), asynq.NewTask(TaskTypeWelcomeEmail, []byte("{broken")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
