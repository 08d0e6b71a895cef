package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/progress"
	"github.com/goalstash/goalstash/internal/repository"
)

// ScannerService walks active goals and decides which milestone and
// payment-due notifications are newly due. It is safe to run any number of
// times: the dispatcher's dedup key makes re-scans no-ops.
type ScannerService struct {
	goalRepo         repository.GoalRepository
	notificationRepo repository.NotificationRepository
	notifier         *NotifierService
	dueSoonDays      int
}

func NewScannerService(
	goalRepo repository.GoalRepository,
	notificationRepo repository.NotificationRepository,
	notifier *NotifierService,
	dueSoonDays int,
) *ScannerService {
	return &ScannerService{
		goalRepo:         goalRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		dueSoonDays:      dueSoonDays,
	}
}

// ScanUser scans one user's active goals and returns the events that were
// newly persisted.
func (s *ScannerService) ScanUser(ctx context.Context, userID string) ([]model.Event, error) {
	goals, err := s.goalRepo.Active(userID)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, goals), nil
}

// ScanAll is the batch entry point, run once a day per deployment.
func (s *ScannerService) ScanAll(ctx context.Context) ([]model.Event, error) {
	goals, err := s.goalRepo.ActiveAllUsers()
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, goals), nil
}

// scan isolates failures per goal: one malformed record or one storage error
// never aborts the rest of the batch.
func (s *ScannerService) scan(ctx context.Context, goals []*model.Goal) []model.Event {
	var emitted []model.Event
	for _, goal := range goals {
		events, err := s.ScanGoal(ctx, goal)
		if err != nil {
			slog.Error("goal scan failed, continuing batch", "error", err, "goal_id", goal.ID, "user_id", goal.UserID)
			continue
		}
		emitted = append(emitted, events...)
	}
	return emitted
}

// ScanGoal decides and dispatches the newly due events for a single goal.
func (s *ScannerService) ScanGoal(ctx context.Context, goal *model.Goal) ([]model.Event, error) {
	if err := repository.Malformed(goal); err != nil {
		slog.Warn("skipping malformed goal record", "error", err, "goal_id", goal.ID)
		return nil, nil
	}
	if goal.Completed() {
		return nil, nil
	}

	today := time.Now()
	snap := progress.Compute(goal, today)

	var emitted []model.Event

	milestones, err := s.milestoneEvents(goal, snap)
	if err != nil {
		return nil, err
	}
	for _, event := range milestones {
		inserted, err := s.notifier.Dispatch(ctx, event)
		if err != nil {
			return emitted, err
		}
		if inserted {
			emitted = append(emitted, event)
		}
	}

	if event, due := s.dueEvent(goal, snap, today); due {
		inserted, err := s.notifier.Dispatch(ctx, event)
		if err != nil {
			return emitted, err
		}
		if inserted {
			emitted = append(emitted, event)
		}
	}

	return emitted, nil
}

// milestoneEvents emits one event per crossed threshold in ascending order,
// never skipping intermediate ones even when a single deposit jumps several
// at once. The 100% threshold is owned by the completion path and excluded
// here, so "completed" and "milestone 100" can never both fire.
func (s *ScannerService) milestoneEvents(goal *model.Goal, snap progress.Snapshot) ([]model.Event, error) {
	notified, err := s.notificationRepo.MilestonesNotified(goal.ID)
	if err != nil {
		return nil, err
	}
	highest := 0
	if len(notified) > 0 {
		highest = notified[len(notified)-1]
	}

	var events []model.Event
	for _, threshold := range progress.MilestoneThresholds {
		if threshold >= 100 {
			break
		}
		if threshold <= highest || threshold > snap.MilestoneBucket {
			continue
		}
		events = append(events, model.Event{
			UserID:    goal.UserID,
			GoalID:    goal.ID,
			GoalName:  goal.Name,
			Kind:      model.NotificationMilestone,
			Title:     fmt.Sprintf("Milestone Reached: %s", goal.Name),
			Message:   fmt.Sprintf("Congratulations! You've reached %d%% of your %s goal. Keep up the great work!", threshold, goal.Name),
			DedupKey:  fmt.Sprintf("%d", threshold),
			Threshold: threshold,
		})
	}
	return events, nil
}

// dueEvent emits at most one payment_due event per goal per due date: the
// due date itself is the dedup key, so re-scans inside the window are
// no-ops and the next cycle (a new due date) notifies again.
func (s *ScannerService) dueEvent(goal *model.Goal, snap progress.Snapshot, today time.Time) (model.Event, bool) {
	if goal.NextDueDate == nil {
		return model.Event{}, false
	}

	due := *goal.NextDueDate
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC).Sub(day).Hours() / 24)
	if days < 0 || days > s.dueSoonDays {
		return model.Event{}, false
	}

	when := fmt.Sprintf("in %d days", days)
	switch days {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	}
	dueDate := due.Format("2006-01-02")

	return model.Event{
		UserID:      goal.UserID,
		GoalID:      goal.ID,
		GoalName:    goal.Name,
		Kind:        model.NotificationPaymentDue,
		Title:       fmt.Sprintf("Payment Due: %s", goal.Name),
		Message:     fmt.Sprintf("Your %s goal has a payment due %s. Recommended amount: €%s", goal.Name, when, snap.Recommended.StringFixed(2)),
		DedupKey:    dueDate,
		DueDate:     dueDate,
		Recommended: snap.Recommended.StringFixed(2),
	}, true
}
