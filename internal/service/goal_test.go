package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/repository"
	"github.com/goalstash/goalstash/internal/validation"
)

func TestCreateGoalValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	past := time.Now().AddDate(0, 0, -1)

	cases := []struct {
		name    string
		params  CreateGoalParams
		wantErr error
	}{
		{
			name:    "empty name",
			params:  CreateGoalParams{Name: "  ", TargetAmount: amt(t, "100"), Frequency: model.FrequencyWeekly},
			wantErr: validation.ErrNameRequired,
		},
		{
			name:    "zero target",
			params:  CreateGoalParams{Name: "Bike", TargetAmount: amt(t, "0"), Frequency: model.FrequencyWeekly},
			wantErr: ErrTargetNotPositive,
		},
		{
			name:    "past date",
			params:  CreateGoalParams{Name: "Bike", TargetAmount: amt(t, "100"), TargetDate: &past, Frequency: model.FrequencyWeekly},
			wantErr: ErrDatePast,
		},
		{
			name:    "bad frequency",
			params:  CreateGoalParams{Name: "Bike", TargetAmount: amt(t, "100"), Frequency: "daily"},
			wantErr: ErrBadFrequency,
		},
		{
			name:    "negative initial deposit",
			params:  CreateGoalParams{Name: "Bike", TargetAmount: amt(t, "100"), Frequency: model.FrequencyWeekly, InitialDeposit: amt(t, "-5")},
			wantErr: validation.ErrAmountNegative,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.goals.Create(ctx, user.ID, tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateGoalSetsSchedule(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)

	goal, completed, err := env.goals.Create(context.Background(), user.ID, CreateGoalParams{
		Name:         "Emergency Fund",
		TargetAmount: amt(t, "1000"),
		Frequency:    model.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if completed {
		t.Fatal("Create() completed = true for an unfunded goal")
	}
	if goal.Status != model.GoalStatusActive {
		t.Fatalf("Status = %s, want active", goal.Status)
	}
	if goal.NextDueDate == nil {
		t.Fatal("NextDueDate not set")
	}
	wantDue := time.Now().AddDate(0, 0, 7)
	if goal.NextDueDate.Day() != wantDue.Day() {
		t.Fatalf("NextDueDate = %v, want one week out", goal.NextDueDate)
	}
}

func TestCreateGoalInitialDepositCompletes(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)

	goal, completed, err := env.goals.Create(context.Background(), user.ID, CreateGoalParams{
		Name:           "Concert Tickets",
		TargetAmount:   amt(t, "100"),
		Frequency:      model.FrequencyMonthly,
		InitialDeposit: amt(t, "150"),
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if !completed {
		t.Fatal("Create() completed = false, want true")
	}
	if goal.CompletedAt == nil {
		t.Fatal("CompletedAt not set")
	}

	notifications, err := env.notifRepo.List(user.ID, 10)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Kind != model.NotificationGoalCompleted {
		t.Fatalf("notifications = %v, want one goal_completed", kinds(notifications))
	}
	if len(env.mailer.completed) != 1 {
		t.Fatalf("completed emails = %d, want 1", len(env.mailer.completed))
	}
}

func TestRecordDepositRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Bike", TargetAmount: amt(t, "100"), Frequency: model.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, _, err := env.goals.RecordDeposit(ctx, user.ID, goal.ID, amt(t, "0"), ""); !errors.Is(err, validation.ErrAmountNotPositive) {
		t.Fatalf("zero deposit error = %v, want ErrAmountNotPositive", err)
	}
	if _, _, err := env.goals.RecordDeposit(ctx, user.ID, goal.ID, amt(t, "-10"), ""); !errors.Is(err, validation.ErrAmountNotPositive) {
		t.Fatalf("negative deposit error = %v, want ErrAmountNotPositive", err)
	}
}

func TestRecordDepositExactTargetCompletesOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Laptop", TargetAmount: amt(t, "1000"), Frequency: model.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	updated, completed, err := env.goals.RecordDeposit(ctx, user.ID, goal.ID, amt(t, "1000"), "")
	if err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}
	if !completed {
		t.Fatal("exact-target deposit did not complete the goal")
	}
	if updated.Status != model.GoalStatusCompleted {
		t.Fatalf("Status = %s, want completed", updated.Status)
	}

	// Exactly one completion notification, no 100% milestone alongside it.
	notifications, err := env.notifRepo.List(user.ID, 10)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Kind != model.NotificationGoalCompleted {
		t.Fatalf("notifications = %v, want exactly one goal_completed", kinds(notifications))
	}
}

func TestRecordDepositEmitsCrossedMilestones(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Holiday", TargetAmount: amt(t, "1000"), Frequency: model.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// One deposit jumping from 0% to 60% crosses 25 and 50.
	if _, _, err := env.goals.RecordDeposit(ctx, user.ID, goal.ID, amt(t, "600"), ""); err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}

	notified, err := env.notifRepo.MilestonesNotified(goal.ID)
	if err != nil {
		t.Fatalf("MilestonesNotified() unexpected error: %v", err)
	}
	if len(notified) != 2 || notified[0] != 25 || notified[1] != 50 {
		t.Fatalf("milestones = %v, want [25 50]", notified)
	}
	if len(env.mailer.milestones) != 2 || env.mailer.milestones[0] != 25 || env.mailer.milestones[1] != 50 {
		t.Fatalf("milestone emails = %v, want [25 50]", env.mailer.milestones)
	}
}

func TestAutoContributeNotDue(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	// A fresh goal's first due date is one period out.
	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Bike", TargetAmount: amt(t, "100"), Frequency: model.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, _, err := env.goals.AutoContribute(ctx, user.ID, goal.ID); !errors.Is(err, ErrDepositNotDue) {
		t.Fatalf("AutoContribute() error = %v, want ErrDepositNotDue", err)
	}
}

func TestAutoContributeRecordsRecommended(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	target := time.Now().AddDate(0, 0, 70).UTC()
	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Holiday", TargetAmount: amt(t, "1000"), TargetDate: &target, Frequency: model.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// Force the due date to today so the contribution is due.
	due := time.Now()
	if err := env.goalRepo.SetNextDue(user.ID, goal.ID, due); err != nil {
		t.Fatalf("SetNextDue() unexpected error: %v", err)
	}

	updated, _, err := env.goals.AutoContribute(ctx, user.ID, goal.ID)
	if err != nil {
		t.Fatalf("AutoContribute() unexpected error: %v", err)
	}
	if !updated.SavedAmount.IsPositive() {
		t.Fatalf("SavedAmount = %s, want a positive contribution", updated.SavedAmount)
	}
	if updated.NextDueDate == nil || !updated.NextDueDate.After(due) {
		t.Fatal("NextDueDate not advanced after contribution")
	}

	deposits, err := env.goals.Deposits(user.ID, goal.ID, 10)
	if err != nil {
		t.Fatalf("Deposits() unexpected error: %v", err)
	}
	if len(deposits) != 1 {
		t.Fatalf("deposits = %d, want 1", len(deposits))
	}
	if deposits[0].Note != "Scheduled weekly contribution" {
		t.Fatalf("Note = %q, want scheduled contribution note", deposits[0].Note)
	}
}

func TestSkipPeriodAdvancesDueDate(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Bike", TargetAmount: amt(t, "100"), Frequency: model.FrequencyBiWeekly,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	nextDue, err := env.goals.SkipPeriod(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("SkipPeriod() unexpected error: %v", err)
	}
	wantDay := time.Now().AddDate(0, 0, 14)
	if nextDue.Day() != wantDay.Day() {
		t.Fatalf("next due = %v, want two weeks out", nextDue)
	}

	loaded, err := env.goals.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if loaded.SavedAmount.IsPositive() {
		t.Fatal("SkipPeriod() moved money")
	}
}

func TestUpdateGoalKeepsBalanceAndStatus(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Bike", TargetAmount: amt(t, "500"), Frequency: model.FrequencyWeekly, InitialDeposit: amt(t, "200"),
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	err = env.goals.Update(ctx, user.ID, goal.ID, UpdateGoalParams{
		Name: "Road Bike", TargetAmount: amt(t, "800"), Frequency: model.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	loaded, err := env.goals.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if loaded.Name != "Road Bike" {
		t.Fatalf("Name = %s, want Road Bike", loaded.Name)
	}
	if got := loaded.SavedAmount.String(); got != "200" {
		t.Fatalf("SavedAmount = %s, want 200 untouched", got)
	}
	if loaded.Status != model.GoalStatusActive {
		t.Fatalf("Status = %s, want active", loaded.Status)
	}
}

func TestDepositedTotalMatchesBalance(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	ctx := context.Background()

	goal, _, err := env.goals.Create(ctx, user.ID, CreateGoalParams{
		Name: "Laptop", TargetAmount: amt(t, "2000"), Frequency: model.FrequencyWeekly, InitialDeposit: amt(t, "150"),
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, _, err := env.goals.RecordDeposit(ctx, user.ID, goal.ID, amt(t, "49.50"), ""); err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}

	total, err := env.goals.DepositedTotal(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("DepositedTotal() unexpected error: %v", err)
	}
	if got := total.StringFixed(2); got != "199.50" {
		t.Fatalf("DepositedTotal() = %s, want 199.50", got)
	}

	loaded, err := env.goals.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if !total.Equal(loaded.SavedAmount) {
		t.Fatalf("ledger %s != balance %s", total, loaded.SavedAmount)
	}

	if _, err := env.goals.DepositedTotal(user.ID, uuid.New().String()); !errors.Is(err, repository.ErrGoalNotFound) {
		t.Fatalf("DepositedTotal() error = %v, want ErrGoalNotFound", err)
	}
}
