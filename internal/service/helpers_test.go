package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/db"
	"github.com/goalstash/goalstash/internal/llm"
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/repository"
)

// fakeMailer records outbound emails instead of sending them.
type fakeMailer struct {
	milestones []int
	dues       []string
	completed  []string
}

func (m *fakeMailer) SendPaymentDueEmail(ctx context.Context, to, name, goalName, recommended, dueDate string) error {
	m.dues = append(m.dues, dueDate)
	return nil
}

func (m *fakeMailer) SendMilestoneEmail(ctx context.Context, to, name, goalName string, threshold int) error {
	m.milestones = append(m.milestones, threshold)
	return nil
}

func (m *fakeMailer) SendGoalCompletedEmail(ctx context.Context, to, name, goalName string) error {
	m.completed = append(m.completed, goalName)
	return nil
}

// fakeGenerator replies with a fixed script, or fails when err is set.
type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, system string, history []model.Turn, message string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

var _ llm.Generator = (*fakeGenerator)(nil)

type testEnv struct {
	db        *sqlx.DB
	userRepo  repository.UserRepository
	goalRepo  repository.GoalRepository
	notifRepo repository.NotificationRepository
	chatRepo  repository.ChatSessionRepository
	mailer    *fakeMailer
	notifier  *NotifierService
	scanner   *ScannerService
	goals     *GoalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := db.MustOpenTest(t)
	userRepo := repository.NewUserRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	depositRepo := repository.NewDepositRepository(database)
	notifRepo := repository.NewNotificationRepository(database)
	chatRepo := repository.NewChatSessionRepository(database)

	mailer := &fakeMailer{}
	notifier := NewNotifierService(notifRepo, userRepo, mailer)
	scanner := NewScannerService(goalRepo, notifRepo, notifier, 3)
	goals := NewGoalService(goalRepo, depositRepo, notifier, scanner)

	return &testEnv{
		db:        database,
		userRepo:  userRepo,
		goalRepo:  goalRepo,
		notifRepo: notifRepo,
		chatRepo:  chatRepo,
		mailer:    mailer,
		notifier:  notifier,
		scanner:   scanner,
		goals:     goals,
	}
}

func (e *testEnv) seedUser(t *testing.T) *model.User {
	t.Helper()

	user := &model.User{
		ID:                     uuid.New().String(),
		Email:                  uuid.New().String() + "@example.com",
		FullName:               "Test User",
		EmailNotifications:     true,
		DashboardNotifications: true,
		CreatedAt:              time.Now(),
	}
	if err := e.userRepo.Create(user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func kinds(notifications []*model.Notification) []string {
	out := make([]string, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.Kind)
	}
	return out
}
