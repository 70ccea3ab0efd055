package storage

import (
	"sync"
	"time"

	"ticket-bot/internal/models"
)

type InMemoryStore struct {
	events   map[int64]*models.Event
	payments map[int64]*models.Payment
	titles   map[int64]string
	nextID   int64
	nextPID  int64
	mutex    sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events:   make(map[int64]*models.Event),
		payments: make(map[int64]*models.Payment),
		titles:   make(map[int64]string),
		nextID:   1,
		nextPID:  1,
	}
}

func (s *InMemoryStore) SaveEvent(event *models.Event) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *event
	copied.ID = s.nextID
	s.nextID++
	s.events[copied.ID] = &copied
	s.titles[copied.ID] = copied.Title
	event.ID = copied.ID
	return copied.ID, nil
}

func (s *InMemoryStore) DeactivateEvent(id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if event, exists := s.events[id]; exists {
		event.Active = false
	}
	return nil
}

func (s *InMemoryStore) ListActiveEvents() ([]*models.Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var events []*models.Event
	for id := int64(1); id < s.nextID; id++ {
		if event, exists := s.events[id]; exists && event.Active {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *InMemoryStore) GetActiveEvent(id int64) (*models.Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	event, exists := s.events[id]
	if !exists || !event.Active {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *InMemoryStore) GetEvent(id int64) (*models.Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	event, exists := s.events[id]
	if !exists {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *InMemoryStore) SavePayment(payment *models.Payment) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *payment
	copied.ID = s.nextPID
	s.nextPID++
	if copied.Timestamp.IsZero() {
		copied.Timestamp = time.Now()
	}
	s.payments[copied.ID] = &copied
	payment.ID = copied.ID
	return copied.ID, nil
}

func (s *InMemoryStore) ListUserPayments(userID int64) ([]*models.UserPayment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var payments []*models.UserPayment
	for id := int64(1); id < s.nextPID; id++ {
		payment, exists := s.payments[id]
		if !exists || payment.UserID != userID {
			continue
		}
		payments = append(payments, &models.UserPayment{
			EventTitle: s.titles[payment.EventID],
			Payment:    *payment,
		})
	}
	return payments, nil
}
