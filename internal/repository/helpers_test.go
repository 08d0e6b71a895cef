package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/db"
	"github.com/goalstash/goalstash/internal/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return db.MustOpenTest(t)
}

func seedUser(t *testing.T, database *sqlx.DB) *model.User {
	t.Helper()

	user := &model.User{
		ID:                     uuid.New().String(),
		Email:                  uuid.New().String() + "@example.com",
		FullName:               "Test User",
		EmailNotifications:     true,
		DashboardNotifications: true,
		CreatedAt:              time.Now(),
	}
	if err := NewUserRepository(database).Create(user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedGoal(t *testing.T, database *sqlx.DB, userID, target, saved string) *model.Goal {
	t.Helper()

	now := time.Now()
	nextDue := now.AddDate(0, 0, 7)
	goal := &model.Goal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         "Emergency Fund",
		TargetAmount: mustDecimal(t, target),
		SavedAmount:  mustDecimal(t, saved),
		Frequency:    model.FrequencyWeekly,
		NextDueDate:  &nextDue,
		Status:       model.GoalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := NewGoalRepository(database).Create(goal, nil); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	return goal
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
