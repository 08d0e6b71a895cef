package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalstash/goalstash/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal, initial *model.Deposit) error
	ByID(userID, goalID string) (*model.Goal, error)
	Active(userID string) ([]*model.Goal, error)
	Completed(userID string, limit int) ([]*model.Goal, error)
	ActiveAllUsers() ([]*model.Goal, error)
	Update(goal *model.Goal) error
	Delete(userID, goalID string) error
	RecordDeposit(userID, goalID string, deposit *model.Deposit, nextDue *time.Time) (*model.Goal, bool, error)
	SetNextDue(userID, goalID string, nextDue time.Time) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Create inserts a goal and, when initial is non-nil, its opening deposit in
// the same transaction so the balance and the deposit ledger cannot diverge.
func (r *goalRepository) Create(goal *model.Goal, initial *model.Deposit) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO goals (id, user_id, name, target_amount, saved_amount, target_date,
		                    frequency, next_due_date, status, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.SavedAmount,
		goal.TargetDate,
		goal.Frequency,
		goal.NextDueDate,
		goal.Status,
		goal.CompletedAt,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if initial != nil {
		_, err = tx.Exec(
			`INSERT INTO deposits (id, goal_id, amount, note, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			initial.ID, initial.GoalID, initial.Amount, initial.Note, initial.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	err := r.db.Get(goal, `SELECT * FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	return goal, err
}

func (r *goalRepository) Active(userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	err := r.db.Select(&goals,
		`SELECT * FROM goals WHERE user_id = $1 AND status = $2 ORDER BY target_date ASC, created_at ASC`,
		userID, model.GoalStatusActive)
	return goals, err
}

func (r *goalRepository) Completed(userID string, limit int) ([]*model.Goal, error) {
	var goals []*model.Goal
	err := r.db.Select(&goals,
		`SELECT * FROM goals WHERE user_id = $1 AND status = $2 ORDER BY completed_at DESC LIMIT $3`,
		userID, model.GoalStatusCompleted, limit)
	return goals, err
}

// ActiveAllUsers feeds the batch scanner.
func (r *goalRepository) ActiveAllUsers() ([]*model.Goal, error) {
	var goals []*model.Goal
	err := r.db.Select(&goals,
		`SELECT * FROM goals WHERE status = $1 ORDER BY user_id, target_date ASC`,
		model.GoalStatusActive)
	return goals, err
}

func (r *goalRepository) Update(goal *model.Goal) error {
	result, err := r.db.Exec(
		`UPDATE goals
		 SET name = $1, target_amount = $2, target_date = $3, frequency = $4,
		     next_due_date = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		goal.Name,
		goal.TargetAmount,
		goal.TargetDate,
		goal.Frequency,
		goal.NextDueDate,
		time.Now(),
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *goalRepository) Delete(userID, goalID string) error {
	result, err := r.db.Exec(`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// errStaleBalance means the guarded balance write matched no row because a
// concurrent deposit committed between our read and our write. The caller
// retries with a fresh read.
var errStaleBalance = errors.New("goal balance changed concurrently")

const depositAttempts = 3

// RecordDeposit appends a deposit, bumps the cached balance and, when the
// new balance reaches the target, flips the goal to completed, all in one
// transaction so no intermediate state (balance over target, still active)
// is ever observable. The balance write is guarded by the value we read, so
// two concurrent deposits cannot overwrite each other under read committed:
// the loser re-reads and retries instead of losing the update. Returns the
// updated goal and whether this write completed it. Completion is terminal:
// an already-completed goal never flips back, and re-running the check is a
// no-op.
func (r *goalRepository) RecordDeposit(userID, goalID string, deposit *model.Deposit, nextDue *time.Time) (*model.Goal, bool, error) {
	for attempt := 0; attempt < depositAttempts; attempt++ {
		goal, completed, err := r.recordDepositOnce(userID, goalID, deposit, nextDue)
		if errors.Is(err, errStaleBalance) {
			continue
		}
		return goal, completed, err
	}
	return nil, false, fmt.Errorf("record deposit on goal %s: %w", goalID, errStaleBalance)
}

func (r *goalRepository) recordDepositOnce(userID, goalID string, deposit *model.Deposit, nextDue *time.Time) (*model.Goal, bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	goal := &model.Goal{}
	err = tx.Get(goal, `SELECT * FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, false, ErrGoalNotFound
	}
	if err != nil {
		return nil, false, err
	}
	previous := goal.SavedAmount

	_, err = tx.Exec(
		`INSERT INTO deposits (id, goal_id, amount, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		deposit.ID, deposit.GoalID, deposit.Amount, deposit.Note, deposit.CreatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	goal.SavedAmount = goal.SavedAmount.Add(deposit.Amount)
	goal.UpdatedAt = now
	if nextDue != nil {
		goal.NextDueDate = nextDue
	}

	completed := false
	if goal.Status == model.GoalStatusActive && goal.SavedAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = model.GoalStatusCompleted
		goal.CompletedAt = &now
		completed = true
	}

	result, err := tx.Exec(
		`UPDATE goals
		 SET saved_amount = $1, next_due_date = $2, status = $3, completed_at = $4, updated_at = $5
		 WHERE id = $6 AND saved_amount = $7`,
		goal.SavedAmount, goal.NextDueDate, goal.Status, goal.CompletedAt, goal.UpdatedAt, goal.ID, previous,
	)
	if err != nil {
		return nil, false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if rows == 0 {
		return nil, false, errStaleBalance
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return goal, completed, nil
}

func (r *goalRepository) SetNextDue(userID, goalID string, nextDue time.Time) error {
	result, err := r.db.Exec(
		`UPDATE goals SET next_due_date = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		nextDue, time.Now(), goalID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// Malformed reports whether a stored goal row is unusable for progress math.
// The batch scanner skips such rows instead of aborting the whole run.
func Malformed(goal *model.Goal) error {
	if !goal.TargetAmount.IsPositive() {
		return fmt.Errorf("goal %s has nonpositive target %s", goal.ID, goal.TargetAmount)
	}
	return nil
}
