package model

import (
	"time"
)

type User struct {
	ID                     string    `db:"id"`
	Email                  string    `db:"email"`
	FullName               string    `db:"full_name"`
	EmailNotifications     bool      `db:"email_notifications"`
	DashboardNotifications bool      `db:"dashboard_notifications"`
	CreatedAt              time.Time `db:"created_at"`
}
