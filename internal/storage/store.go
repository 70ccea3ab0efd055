package storage

import (
	"errors"

	"ticket-bot/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type Store interface {
	SaveEvent(event *models.Event) (int64, error)
	DeactivateEvent(id int64) error
	ListActiveEvents() ([]*models.Event, error)
	GetActiveEvent(id int64) (*models.Event, error)
	GetEvent(id int64) (*models.Event, error)

	// Payment related operations
	SavePayment(payment *models.Payment) (int64, error)
	ListUserPayments(userID int64) ([]*models.UserPayment, error)
}
