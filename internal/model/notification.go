package model

import (
	"time"
)

// Notification kinds.
const (
	NotificationMilestone     = "milestone"
	NotificationPaymentDue    = "payment_due"
	NotificationGoalCompleted = "goal_completed"
)

// DedupKeyCompleted is the dedup key for the single goal_completed
// notification a goal can ever have. Milestone notifications use the
// threshold percentage ("25", "50", "75") and payment_due notifications the
// due date in ISO form, so one record exists per goal per due date.
const DedupKeyCompleted = "completed"

// Notification is one persisted dashboard notification. The
// (goal_id, kind, dedup_key) tuple is unique at the storage layer.
type Notification struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	GoalID    string    `db:"goal_id"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	DedupKey  string    `db:"dedup_key"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// Event is a decided notification occurrence on its way to the dispatcher,
// before it has been persisted.
type Event struct {
	UserID   string
	GoalID   string
	GoalName string
	Kind     string
	Title    string
	Message  string
	DedupKey string

	// Payload for the email rendering, depending on Kind.
	Threshold   int    // milestone
	DueDate     string // payment_due
	Recommended string // payment_due
}
