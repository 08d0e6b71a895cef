package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is one contribution towards a goal. Rows are append-only; the sum
// of a goal's deposits always reconciles with its SavedAmount.
type Deposit struct {
	ID        string          `db:"id"`
	GoalID    string          `db:"goal_id"`
	Amount    decimal.Decimal `db:"amount"`
	Note      string          `db:"note"`
	CreatedAt time.Time       `db:"created_at"`
}
