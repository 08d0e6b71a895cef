package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/goalstash/goalstash/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(userID string) (*model.User, error)
	UpdatePreferences(userID string, emailNotifications, dashboardNotifications bool) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	_, err := r.db.Exec(
		`INSERT INTO users (id, email, full_name, email_notifications, dashboard_notifications, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.FullName, user.EmailNotifications, user.DashboardNotifications, user.CreatedAt,
	)
	return err
}

func (r *userRepository) ByID(userID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) UpdatePreferences(userID string, emailNotifications, dashboardNotifications bool) error {
	result, err := r.db.Exec(
		`UPDATE users SET email_notifications = $1, dashboard_notifications = $2 WHERE id = $3`,
		emailNotifications, dashboardNotifications, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
