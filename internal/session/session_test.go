package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ticket-bot/internal/wizard"
)

func TestQuantity_DefaultsToOne(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 1, s.Quantity(1, 42))
}

func TestAdjust_ClampsToBounds(t *testing.T) {
	s := NewStore()

	// Decrease at the lower bound is a no-op.
	assert.Equal(t, 1, s.Adjust(1, 42, -1))
	assert.Equal(t, 1, s.Quantity(1, 42))

	for i := 0; i < 9; i++ {
		s.Adjust(1, 42, +1)
	}
	assert.Equal(t, 10, s.Quantity(1, 42))

	// Increase at the upper bound is a no-op.
	assert.Equal(t, 10, s.Adjust(1, 42, +1))
	assert.Equal(t, 10, s.Quantity(1, 42))
}

func TestAdjust_KeyedByUserAndEvent(t *testing.T) {
	s := NewStore()

	s.Adjust(1, 42, +1)
	s.Adjust(1, 42, +1)

	assert.Equal(t, 3, s.Quantity(1, 42))
	assert.Equal(t, 1, s.Quantity(1, 43), "other event untouched")
	assert.Equal(t, 1, s.Quantity(2, 42), "other user untouched")
}

func TestConversation_BeginSupersedesAndEndDiscards(t *testing.T) {
	s := NewStore()

	_, active := s.Conversation(1)
	assert.False(t, active)

	c := s.BeginConversation(1, wizard.StageTitle)
	c.Draft.Title = "Concerto"

	// A fresh entry discards the prior draft.
	c2 := s.BeginConversation(1, wizard.StageTitleFromPost)
	assert.Empty(t, c2.Draft.Title)
	assert.Equal(t, wizard.StageTitleFromPost, c2.Stage)

	s.EndConversation(1)
	_, active = s.Conversation(1)
	assert.False(t, active)

	// Ending twice is a no-op.
	s.EndConversation(1)
}
