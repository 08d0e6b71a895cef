package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/model"
)

type DepositRepository interface {
	ByGoal(userID, goalID string, limit int) ([]*model.Deposit, error)
	Sum(goalID string) (decimal.Decimal, error)
}

type depositRepository struct {
	db *sqlx.DB
}

func NewDepositRepository(db *sqlx.DB) DepositRepository {
	return &depositRepository{db: db}
}

// ByGoal lists a goal's deposits, newest first, scoped to the owning user.
// Inserts happen inside GoalRepository transactions; deposits are append-only.
func (r *depositRepository) ByGoal(userID, goalID string, limit int) ([]*model.Deposit, error) {
	var deposits []*model.Deposit
	err := r.db.Select(&deposits,
		`SELECT d.* FROM deposits d
		 JOIN goals g ON g.id = d.goal_id
		 WHERE d.goal_id = $1 AND g.user_id = $2
		 ORDER BY d.created_at DESC
		 LIMIT $3`,
		goalID, userID, limit)
	return deposits, err
}

// Sum reconciles the deposit ledger against the goal's cached balance. The
// addition happens here, not in SQL, so amounts stay exact decimals.
func (r *depositRepository) Sum(goalID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.Select(&amounts, `SELECT amount FROM deposits WHERE goal_id = $1`, goalID)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, amount := range amounts {
		sum = sum.Add(amount)
	}
	return sum, nil
}
