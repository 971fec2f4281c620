package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vantage-hq/vantage/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeEmail is the task type for the post-provisioning welcome email.
	TaskTypeWelcomeEmail = "mail:welcome"

	// welcomeEmailMaxRetry bounds delivery attempts for a single welcome email.
	welcomeEmailMaxRetry = 3
)

// WelcomeEmailPayload identifies the user awaiting a welcome email. Only the
// ID is queued; the recipient address is resolved at processing time so a
// later email change is honoured.
type WelcomeEmailPayload struct {
	UserID int64 `json:"user_id"`
}

// NewWelcomeEmailTask constructs an Asynq task for the welcome email.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data, asynq.MaxRetry(welcomeEmailMaxRetry)), nil
}

// WelcomeRecipient is the slice of user state the welcome email needs.
type WelcomeRecipient struct {
	Name  string
	Email string
}

// RecipientFinder resolves a queued user ID to a deliverable recipient.
type RecipientFinder interface {
	FindRecipient(ctx context.Context, userID int64) (*WelcomeRecipient, error)
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WelcomeEmailProcessor handles TaskTypeWelcomeEmail tasks.
type WelcomeEmailProcessor struct {
	finder RecipientFinder
	sender Sender
	logger *slog.Logger
}

// NewWelcomeEmailProcessor wires the welcome email task handler.
func NewWelcomeEmailProcessor(finder RecipientFinder, sender Sender, logger *slog.Logger) *WelcomeEmailProcessor {
	return &WelcomeEmailProcessor{finder: finder, sender: sender, logger: logger}
}

// ProcessTask sends the welcome email. A user deleted between enqueue and
// processing is not an error: the task is dropped without retrying.
func (p *WelcomeEmailProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	recipient, err := p.finder.FindRecipient(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			p.logger.Info("welcome email skipped, user no longer exists",
				slog.Int64("user_id", payload.UserID))
			return nil
		}
		return fmt.Errorf("resolve welcome recipient %d: %w", payload.UserID, err)
	}
	if err := p.sender.Send(ctx, recipient.Email, welcomeSubject, welcomeBody(recipient.Name)); err != nil {
		return fmt.Errorf("send welcome email to user %d: %w", payload.UserID, err)
	}
	p.logger.Info("welcome email sent", slog.Int64("user_id", payload.UserID))
	return nil
}

const welcomeSubject = "Welcome to Vantage"

func welcomeBody(name string) string {
	return fmt.Sprintf("Hello %s,\r\n\r\nYour Vantage account is ready. Sign in with the credentials shared by your administrator.\r\n\r\nThe Vantage Team\r\n", name)
}
