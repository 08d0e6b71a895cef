package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/repository"
)

// Mailer is the outbound email collaborator. Failures are never fatal to a
// dispatch: the dashboard record has already been committed.
type Mailer interface {
	SendPaymentDueEmail(ctx context.Context, to, name, goalName, recommended, dueDate string) error
	SendMilestoneEmail(ctx context.Context, to, name, goalName string, threshold int) error
	SendGoalCompletedEmail(ctx context.Context, to, name, goalName string) error
}

// NotifierService turns decided events into persisted notification records
// and, preference permitting, outbound emails.
type NotifierService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	mailer           Mailer
}

func NewNotifierService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer Mailer,
) *NotifierService {
	return &NotifierService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
	}
}

// Dispatch persists the event under its dedup key and sends the matching
// email when the record is new and the user opted in. Returns whether a new
// record was created; a dedup collision is success-by-idempotence, so
// callers may re-run scans freely without double-notifying.
func (s *NotifierService) Dispatch(ctx context.Context, event model.Event) (bool, error) {
	notification := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    event.UserID,
		GoalID:    event.GoalID,
		Kind:      event.Kind,
		Title:     event.Title,
		Message:   event.Message,
		DedupKey:  event.DedupKey,
		CreatedAt: time.Now(),
	}

	inserted, err := s.notificationRepo.Insert(notification)
	if err != nil {
		return false, err
	}
	if !inserted {
		slog.Debug("notification already exists, skipping",
			"goal_id", event.GoalID, "kind", event.Kind, "dedup_key", event.DedupKey)
		return false, nil
	}

	s.sendEmail(ctx, event)
	return true, nil
}

// Unread returns the user's unread dashboard feed. Users who turned
// dashboard notifications off get an empty feed; records keep being written
// regardless, because they double as the dedup ledger.
func (s *NotifierService) Unread(userID string, limit int) ([]*model.Notification, error) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		return nil, err
	}
	if !user.DashboardNotifications {
		return []*model.Notification{}, nil
	}
	return s.notificationRepo.Unread(userID, limit)
}

func (s *NotifierService) List(userID string, limit int) ([]*model.Notification, error) {
	return s.notificationRepo.List(userID, limit)
}

func (s *NotifierService) MarkRead(userID, notificationID string) error {
	return s.notificationRepo.MarkRead(userID, notificationID)
}

func (s *NotifierService) MarkAllRead(userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(userID)
}

// sendEmail is best-effort: a mail provider outage must never roll back or
// mask the already-persisted dashboard notification.
func (s *NotifierService) sendEmail(ctx context.Context, event model.Event) {
	user, err := s.userRepo.ByID(event.UserID)
	if err != nil {
		slog.Error("failed to load user for notification email", "error", err, "user_id", event.UserID)
		return
	}
	if !user.EmailNotifications {
		return
	}

	switch event.Kind {
	case model.NotificationMilestone:
		err = s.mailer.SendMilestoneEmail(ctx, user.Email, user.FullName, event.GoalName, event.Threshold)
	case model.NotificationPaymentDue:
		err = s.mailer.SendPaymentDueEmail(ctx, user.Email, user.FullName, event.GoalName, event.Recommended, event.DueDate)
	case model.NotificationGoalCompleted:
		err = s.mailer.SendGoalCompletedEmail(ctx, user.Email, user.FullName, event.GoalName)
	}
	if err != nil {
		slog.Error("notification email failed", "error", err,
			"kind", event.Kind, "user_id", event.UserID, "goal_id", event.GoalID)
	}
}
