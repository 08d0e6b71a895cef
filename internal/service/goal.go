package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/progress"
	"github.com/goalstash/goalstash/internal/repository"
	"github.com/goalstash/goalstash/internal/validation"
)

var (
	ErrTargetNotPositive  = errors.New("target amount must be positive")
	ErrDatePast           = errors.New("target date must be in the future")
	ErrBadFrequency       = errors.New("frequency must be one of: weekly, bi-weekly, monthly")
	ErrDepositNotDue      = errors.New("this contribution is not due yet")
	ErrNothingRecommended = errors.New("no contribution recommended for this period")
)

type CreateGoalParams struct {
	Name           string
	TargetAmount   decimal.Decimal
	TargetDate     *time.Time // optional deadline
	Frequency      string
	InitialDeposit decimal.Decimal
}

type UpdateGoalParams struct {
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
	Frequency    string
}

// GoalWithProgress pairs a goal with its derived snapshot for callers that
// render both.
type GoalWithProgress struct {
	Goal     *model.Goal
	Progress progress.Snapshot
}

// GoalService owns goal lifecycle and the completion state machine:
// active -> completed, terminal, flipped in the same transaction as the
// balance write that crosses the target.
type GoalService struct {
	repo        repository.GoalRepository
	depositRepo repository.DepositRepository
	notifier    *NotifierService
	scanner     *ScannerService
}

func NewGoalService(
	repo repository.GoalRepository,
	depositRepo repository.DepositRepository,
	notifier *NotifierService,
	scanner *ScannerService,
) *GoalService {
	return &GoalService{
		repo:        repo,
		depositRepo: depositRepo,
		notifier:    notifier,
		scanner:     scanner,
	}
}

func validateGoalBasics(name string, target decimal.Decimal, targetDate *time.Time, frequency string, now time.Time) error {
	if err := validation.ValidateGoalName(name); err != nil {
		return err
	}
	if !target.IsPositive() {
		return ErrTargetNotPositive
	}
	if targetDate != nil {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !targetDate.After(day) {
			return ErrDatePast
		}
	}
	if !model.ValidFrequency(frequency) {
		return ErrBadFrequency
	}
	return nil
}

// Create validates and persists a new goal. An initial deposit that already
// meets the target completes the goal immediately, same as any other
// balance-changing write.
func (s *GoalService) Create(ctx context.Context, userID string, params CreateGoalParams) (*model.Goal, bool, error) {
	now := time.Now()
	if err := validateGoalBasics(params.Name, params.TargetAmount, params.TargetDate, params.Frequency, now); err != nil {
		return nil, false, err
	}
	if params.InitialDeposit.IsNegative() {
		return nil, false, validation.ErrAmountNegative
	}

	nextDue := model.NextDue(now, params.Frequency)
	goal := &model.Goal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         params.Name,
		TargetAmount: params.TargetAmount.Round(2),
		SavedAmount:  params.InitialDeposit.Round(2),
		TargetDate:   params.TargetDate,
		Frequency:    params.Frequency,
		NextDueDate:  &nextDue,
		Status:       model.GoalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var initial *model.Deposit
	if params.InitialDeposit.IsPositive() {
		initial = &model.Deposit{
			ID:        uuid.New().String(),
			GoalID:    goal.ID,
			Amount:    params.InitialDeposit.Round(2),
			Note:      "Initial lump sum",
			CreatedAt: now,
		}
	}

	completed := false
	if goal.SavedAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = model.GoalStatusCompleted
		goal.CompletedAt = &now
		completed = true
	}

	if err := s.repo.Create(goal, initial); err != nil {
		return nil, false, fmt.Errorf("failed to create goal: %w", err)
	}

	if completed {
		if _, err := s.notifier.Dispatch(ctx, completionEvent(goal)); err != nil {
			return goal, true, err
		}
	}
	return goal, completed, nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

func (s *GoalService) Active(userID string) ([]GoalWithProgress, error) {
	return s.withProgress(s.repo.Active(userID))
}

func (s *GoalService) Completed(userID string, limit int) ([]GoalWithProgress, error) {
	return s.withProgress(s.repo.Completed(userID, limit))
}

func (s *GoalService) withProgress(goals []*model.Goal, err error) ([]GoalWithProgress, error) {
	if err != nil {
		return nil, err
	}
	today := time.Now()
	enriched := make([]GoalWithProgress, 0, len(goals))
	for _, goal := range goals {
		enriched = append(enriched, GoalWithProgress{
			Goal:     goal,
			Progress: progress.Compute(goal, today),
		})
	}
	return enriched, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, params UpdateGoalParams) error {
	now := time.Now()
	if err := validateGoalBasics(params.Name, params.TargetAmount, params.TargetDate, params.Frequency, now); err != nil {
		return err
	}

	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return err
	}

	goal.Name = params.Name
	goal.TargetAmount = params.TargetAmount.Round(2)
	goal.TargetDate = params.TargetDate
	goal.Frequency = params.Frequency
	nextDue := model.NextDue(now, params.Frequency)
	goal.NextDueDate = &nextDue

	return s.repo.Update(goal)
}

func (s *GoalService) Delete(userID, goalID string) error {
	if _, err := s.repo.ByID(userID, goalID); err != nil {
		return err
	}
	return s.repo.Delete(userID, goalID)
}

// RecordDeposit appends a deposit and runs the completion check in the same
// storage transaction. When the deposit completes the goal it emits exactly
// one goal_completed event; otherwise newly crossed milestones are scanned.
func (s *GoalService) RecordDeposit(ctx context.Context, userID, goalID string, amount decimal.Decimal, note string) (*model.Goal, bool, error) {
	if !amount.IsPositive() {
		return nil, false, validation.ErrAmountNotPositive
	}

	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, false, err
	}

	if note == "" {
		note = "Lump sum deposit"
	}
	now := time.Now()
	deposit := &model.Deposit{
		ID:        uuid.New().String(),
		GoalID:    goalID,
		Amount:    amount.Round(2),
		Note:      note,
		CreatedAt: now,
	}
	nextDue := model.NextDue(now, goal.Frequency)

	updated, completed, err := s.repo.RecordDeposit(userID, goalID, deposit, &nextDue)
	if err != nil {
		return nil, false, err
	}

	if completed {
		if _, err := s.notifier.Dispatch(ctx, completionEvent(updated)); err != nil {
			return updated, true, err
		}
		return updated, true, nil
	}

	// Still active: see whether this deposit crossed any milestone.
	if _, err := s.scanner.ScanGoal(ctx, updated); err != nil {
		return updated, false, err
	}
	return updated, false, nil
}

// AutoContribute records the recommended amount for the current period once
// it is due.
func (s *GoalService) AutoContribute(ctx context.Context, userID, goalID string) (*model.Goal, bool, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, false, err
	}

	snap := progress.Compute(goal, time.Now())
	if !snap.IsDue {
		return nil, false, ErrDepositNotDue
	}
	if !snap.Recommended.IsPositive() {
		return nil, false, ErrNothingRecommended
	}

	note := fmt.Sprintf("Scheduled %s contribution", goal.Frequency)
	return s.RecordDeposit(ctx, userID, goalID, snap.Recommended, note)
}

// SkipPeriod moves the next due date one period forward without funds.
func (s *GoalService) SkipPeriod(userID, goalID string) (time.Time, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return time.Time{}, err
	}
	nextDue := model.NextDue(time.Now(), goal.Frequency)
	if err := s.repo.SetNextDue(userID, goalID, nextDue); err != nil {
		return time.Time{}, err
	}
	return nextDue, nil
}

func (s *GoalService) Deposits(userID, goalID string, limit int) ([]*model.Deposit, error) {
	if _, err := s.repo.ByID(userID, goalID); err != nil {
		return nil, err
	}
	return s.depositRepo.ByGoal(userID, goalID, limit)
}

// DepositedTotal returns the deposit ledger sum for a goal. The cached
// balance must always match it; a divergence means a write slipped past the
// transaction boundary, so it is logged for operators while the ledger value
// is returned as the source of truth.
func (s *GoalService) DepositedTotal(userID, goalID string) (decimal.Decimal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return decimal.Zero, err
	}
	sum, err := s.depositRepo.Sum(goalID)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Equal(goal.SavedAmount) {
		slog.Warn("goal balance diverged from deposit ledger",
			"goal_id", goalID, "balance", goal.SavedAmount, "ledger", sum)
	}
	return sum, nil
}

func completionEvent(goal *model.Goal) model.Event {
	return model.Event{
		UserID:   goal.UserID,
		GoalID:   goal.ID,
		GoalName: goal.Name,
		Kind:     model.NotificationGoalCompleted,
		Title:    fmt.Sprintf("Goal Completed: %s", goal.Name),
		Message:  fmt.Sprintf("Congratulations! You've completed your %s savings goal.", goal.Name),
		DedupKey: model.DedupKeyCompleted,
	}
}
