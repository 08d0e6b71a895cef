package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goalstash/goalstash/internal/model"
)

func TestGoalRoundTrip(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	goal := seedGoal(t, database, user.ID, "1000", "250")

	loaded, err := repo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if !loaded.TargetAmount.Equal(goal.TargetAmount) {
		t.Fatalf("TargetAmount = %s, want %s", loaded.TargetAmount, goal.TargetAmount)
	}
	if !loaded.SavedAmount.Equal(goal.SavedAmount) {
		t.Fatalf("SavedAmount = %s, want %s", loaded.SavedAmount, goal.SavedAmount)
	}
	if loaded.Status != model.GoalStatusActive {
		t.Fatalf("Status = %s, want active", loaded.Status)
	}
}

func TestGoalByIDEnforcesOwnership(t *testing.T) {
	database := testDB(t)
	owner := seedUser(t, database)
	other := seedUser(t, database)
	repo := NewGoalRepository(database)

	goal := seedGoal(t, database, owner.ID, "1000", "0")

	if _, err := repo.ByID(other.ID, goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("ByID() with wrong user error = %v, want ErrGoalNotFound", err)
	}
}

func TestRecordDepositAddsAndStaysActive(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	goal := seedGoal(t, database, user.ID, "1000", "100")
	nextDue := time.Now().AddDate(0, 0, 7)

	updated, completed, err := repo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Amount:    mustDecimal(t, "400"),
		CreatedAt: time.Now(),
	}, &nextDue)
	if err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}
	if completed {
		t.Fatal("RecordDeposit() completed = true, want false")
	}
	if got := updated.SavedAmount.String(); got != "500" {
		t.Fatalf("SavedAmount = %s, want 500", got)
	}
	if updated.CompletedAt != nil {
		t.Fatal("CompletedAt set on an active goal")
	}
}

func TestRecordDepositCompletesAtTarget(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	goal := seedGoal(t, database, user.ID, "1000", "900")

	updated, completed, err := repo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Amount:    mustDecimal(t, "100"),
		CreatedAt: time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}
	if !completed {
		t.Fatal("RecordDeposit() completed = false, want true")
	}
	if updated.Status != model.GoalStatusCompleted {
		t.Fatalf("Status = %s, want completed", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Fatal("CompletedAt not set on completion")
	}

	// The flip must be visible to other readers immediately.
	loaded, err := repo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if loaded.Status != model.GoalStatusCompleted {
		t.Fatalf("persisted Status = %s, want completed", loaded.Status)
	}
}

func TestRecordDepositCompletionIsTerminal(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	goal := seedGoal(t, database, user.ID, "100", "99")

	_, completed, err := repo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
		ID: uuid.New().String(), GoalID: goal.ID, Amount: mustDecimal(t, "1"), CreatedAt: time.Now(),
	}, nil)
	if err != nil || !completed {
		t.Fatalf("first deposit: completed=%v err=%v, want true nil", completed, err)
	}

	first, err := repo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}

	// A later deposit still lands but never re-completes.
	_, completed, err = repo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
		ID: uuid.New().String(), GoalID: goal.ID, Amount: mustDecimal(t, "50"), CreatedAt: time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("second deposit unexpected error: %v", err)
	}
	if completed {
		t.Fatal("second deposit reported completed = true, want false")
	}

	second, err := repo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatalf("CompletedAt moved from %v to %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestRecordDepositUnknownGoal(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	_, _, err := repo.RecordDeposit(user.ID, uuid.New().String(), &model.Deposit{
		ID: uuid.New().String(), Amount: mustDecimal(t, "10"), CreatedAt: time.Now(),
	}, nil)
	if !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("error = %v, want ErrGoalNotFound", err)
	}
}

func TestActiveExcludesCompleted(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	repo := NewGoalRepository(database)

	active := seedGoal(t, database, user.ID, "1000", "0")
	done := seedGoal(t, database, user.ID, "100", "99")
	if _, completed, err := repo.RecordDeposit(user.ID, done.ID, &model.Deposit{
		ID: uuid.New().String(), GoalID: done.ID, Amount: mustDecimal(t, "1"), CreatedAt: time.Now(),
	}, nil); err != nil || !completed {
		t.Fatalf("completing deposit: completed=%v err=%v", completed, err)
	}

	goals, err := repo.Active(user.ID)
	if err != nil {
		t.Fatalf("Active() unexpected error: %v", err)
	}
	if len(goals) != 1 || goals[0].ID != active.ID {
		t.Fatalf("Active() = %d goals, want exactly the active one", len(goals))
	}

	completedGoals, err := repo.Completed(user.ID, 10)
	if err != nil {
		t.Fatalf("Completed() unexpected error: %v", err)
	}
	if len(completedGoals) != 1 || completedGoals[0].ID != done.ID {
		t.Fatalf("Completed() = %d goals, want exactly the completed one", len(completedGoals))
	}
}

func TestDeleteCascadesDeposits(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	goalRepo := NewGoalRepository(database)
	depositRepo := NewDepositRepository(database)

	goal := seedGoal(t, database, user.ID, "1000", "0")
	if _, _, err := goalRepo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
		ID: uuid.New().String(), GoalID: goal.ID, Amount: mustDecimal(t, "50"), CreatedAt: time.Now(),
	}, nil); err != nil {
		t.Fatalf("RecordDeposit() unexpected error: %v", err)
	}

	if err := goalRepo.Delete(user.ID, goal.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := goalRepo.ByID(user.ID, goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("ByID() after delete error = %v, want ErrGoalNotFound", err)
	}

	sum, err := depositRepo.Sum(goal.ID)
	if err != nil {
		t.Fatalf("Sum() unexpected error: %v", err)
	}
	if !sum.IsZero() {
		t.Fatalf("deposit sum after delete = %s, want 0", sum)
	}
}

func TestDepositSumMatchesBalance(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	goalRepo := NewGoalRepository(database)
	depositRepo := NewDepositRepository(database)

	goal := seedGoal(t, database, user.ID, "1000", "0")
	for _, amount := range []string{"100", "250.50", "9.99"} {
		if _, _, err := goalRepo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
			ID: uuid.New().String(), GoalID: goal.ID, Amount: mustDecimal(t, amount), CreatedAt: time.Now(),
		}, nil); err != nil {
			t.Fatalf("RecordDeposit(%s) unexpected error: %v", amount, err)
		}
	}

	loaded, err := goalRepo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	sum, err := depositRepo.Sum(goal.ID)
	if err != nil {
		t.Fatalf("Sum() unexpected error: %v", err)
	}
	if !sum.Equal(loaded.SavedAmount) {
		t.Fatalf("deposit sum %s != cached balance %s", sum, loaded.SavedAmount)
	}
}

func TestConcurrentDepositsLoseNothing(t *testing.T) {
	database := testDB(t)
	user := seedUser(t, database)
	goalRepo := NewGoalRepository(database)
	depositRepo := NewDepositRepository(database)

	goal := seedGoal(t, database, user.ID, "10000", "0")

	const workers = 8
	amount := mustDecimal(t, "10.50")
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := goalRepo.RecordDeposit(user.ID, goal.ID, &model.Deposit{
				ID: uuid.New().String(), GoalID: goal.ID, Amount: amount, CreatedAt: time.Now(),
			}, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordDeposit() unexpected error: %v", err)
		}
	}

	loaded, err := goalRepo.ByID(user.ID, goal.ID)
	if err != nil {
		t.Fatalf("ByID() unexpected error: %v", err)
	}
	want := mustDecimal(t, "84.00")
	if !loaded.SavedAmount.Equal(want) {
		t.Fatalf("SavedAmount = %s, want %s", loaded.SavedAmount, want)
	}
	sum, err := depositRepo.Sum(goal.ID)
	if err != nil {
		t.Fatalf("Sum() unexpected error: %v", err)
	}
	if !sum.Equal(loaded.SavedAmount) {
		t.Fatalf("deposit sum %s != cached balance %s", sum, loaded.SavedAmount)
	}
}
