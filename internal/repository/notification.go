package repository

import (
	"errors"
	"sort"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/goalstash/goalstash/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationRepository interface {
	// Insert persists a notification under its dedup key. A key collision is
	// not an error: inserted is false and the caller treats the event as
	// already delivered.
	Insert(n *model.Notification) (inserted bool, err error)
	List(userID string, limit int) ([]*model.Notification, error)
	Unread(userID string, limit int) ([]*model.Notification, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) (int64, error)
	MilestonesNotified(goalID string) ([]int, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Insert(n *model.Notification) (bool, error) {
	// ON CONFLICT DO NOTHING works on both sqlite and postgres and keeps the
	// dedup decision inside the store, where concurrent scanners meet it.
	result, err := r.db.Exec(
		`INSERT INTO notifications (id, user_id, goal_id, kind, title, message, dedup_key, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (goal_id, kind, dedup_key) DO NOTHING`,
		n.ID, n.UserID, n.GoalID, n.Kind, n.Title, n.Message, n.DedupKey, n.Read, n.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *notificationRepository) List(userID string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.Select(&notifications,
		`SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	return notifications, err
}

func (r *notificationRepository) Unread(userID string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.Select(&notifications,
		`SELECT * FROM notifications WHERE user_id = $1 AND read = FALSE ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	return notifications, err
}

func (r *notificationRepository) MarkRead(userID, notificationID string) error {
	result, err := r.db.Exec(
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID string) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`,
		userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MilestonesNotified returns the milestone thresholds already recorded for a
// goal, ascending. The scanner uses it to decide which thresholds are new.
func (r *notificationRepository) MilestonesNotified(goalID string) ([]int, error) {
	var keys []string
	err := r.db.Select(&keys,
		`SELECT dedup_key FROM notifications WHERE goal_id = $1 AND kind = $2`,
		goalID, model.NotificationMilestone)
	if err != nil {
		return nil, err
	}

	thresholds := make([]int, 0, len(keys))
	for _, k := range keys {
		t, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		thresholds = append(thresholds, t)
	}
	sort.Ints(thresholds)
	return thresholds, nil
}
