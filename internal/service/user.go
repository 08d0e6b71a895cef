package service

import (
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/repository"
)

// UserService exposes the notification preference store. It is read-mostly:
// the dispatcher consults it on every event.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) ByID(userID string) (*model.User, error) {
	return s.repo.ByID(userID)
}

func (s *UserService) UpdatePreferences(userID string, emailNotifications, dashboardNotifications bool) error {
	return s.repo.UpdatePreferences(userID, emailNotifications, dashboardNotifications)
}
