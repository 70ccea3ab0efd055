// Package session holds the per-user in-memory state: the active authoring
// conversation and the ticket quantity chosen for each event. Nothing here is
// persisted; state lives for the process lifetime.
package session

import (
	"sync"

	"ticket-bot/internal/wizard"
)

// Quantity bounds for the per-event ticket stepper.
const (
	MinQuantity     = 1
	MaxQuantity     = 10
	defaultQuantity = 1
)

type Store struct {
	mu            sync.Mutex
	conversations map[int64]*wizard.Conversation
	quantities    map[int64]map[int64]int
	userLocks     map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[int64]*wizard.Conversation),
		quantities:    make(map[int64]map[int64]int),
		userLocks:     make(map[int64]*sync.Mutex),
	}
}

// UserLock returns the mutex serializing one user's transitions. It is held
// for the whole handling of an inbound event, including blocking calls, so a
// second event for the same user queues until the first completes.
func (s *Store) UserLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Conversation returns the user's active authoring conversation, if any.
func (s *Store) Conversation(userID int64) (*wizard.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[userID]
	return c, ok
}

// BeginConversation starts a fresh conversation at the given stage,
// discarding any prior draft.
func (s *Store) BeginConversation(userID int64, stage wizard.Stage) *wizard.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &wizard.Conversation{Stage: stage}
	s.conversations[userID] = c
	return c
}

// EndConversation discards the user's conversation. Calling it with no active
// conversation is a no-op.
func (s *Store) EndConversation(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, userID)
}

// Quantity returns the user's chosen ticket quantity for the event, creating
// the default on first access.
func (s *Store) Quantity(userID, eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.quantity(userID, eventID)
}

// Adjust shifts the quantity by delta, clamped to [1,10]. A step past either
// bound leaves the value unchanged.
func (s *Store) Adjust(userID, eventID int64, delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.quantity(userID, eventID) + delta
	if q < MinQuantity {
		q = MinQuantity
	}
	if q > MaxQuantity {
		q = MaxQuantity
	}
	s.quantities[userID][eventID] = q
	return q
}

func (s *Store) quantity(userID, eventID int64) int {
	byEvent, ok := s.quantities[userID]
	if !ok {
		byEvent = make(map[int64]int)
		s.quantities[userID] = byEvent
	}
	q, ok := byEvent[eventID]
	if !ok {
		q = defaultQuantity
		byEvent[eventID] = q
	}
	return q
}
