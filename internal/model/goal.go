package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
)

// Contribution frequencies a goal can be saved towards.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiWeekly = "bi-weekly"
	FrequencyMonthly  = "monthly"
)

var Frequencies = []string{FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly}

// PeriodDays maps a contribution frequency to its approximate length in days.
var PeriodDays = map[string]int{
	FrequencyWeekly:   7,
	FrequencyBiWeekly: 14,
	FrequencyMonthly:  30,
}

func ValidFrequency(f string) bool {
	_, ok := PeriodDays[f]
	return ok
}

// Goal is a savings goal. SavedAmount is a cached aggregate of the goal's
// deposits; the deposits table is the source of truth.
type Goal struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	Name         string          `db:"name"`
	TargetAmount decimal.Decimal `db:"target_amount"`
	SavedAmount  decimal.Decimal `db:"saved_amount"`
	TargetDate   *time.Time      `db:"target_date"`
	Frequency    string          `db:"frequency"`
	NextDueDate  *time.Time      `db:"next_due_date"`
	Status       string          `db:"status"`
	CompletedAt  *time.Time      `db:"completed_at"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (g *Goal) Completed() bool {
	return g.Status == GoalStatusCompleted
}

// NextDue returns the date one contribution period after start.
func NextDue(start time.Time, frequency string) time.Time {
	days, ok := PeriodDays[frequency]
	if !ok {
		days = PeriodDays[FrequencyMonthly]
	}
	return start.AddDate(0, 0, days)
}
