package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a sellable occasion with a base ticket price and an optional
// shuttle-transfer leg. StartLocation, TransferPrice and TransferTime are
// either all set or all nil.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID            int64      `json:"id" bun:"id,pk,autoincrement"`
	Title         string     `json:"title" bun:"title"`
	Description   string     `json:"description" bun:"description"`
	Price         int64      `json:"price" bun:"price"`
	ImagePath     string     `json:"imagePath" bun:"image_path"`
	StartLocation *string    `json:"startLocation" bun:"start_location"`
	EndLocation   string     `json:"endLocation" bun:"end_location"`
	TransferPrice *int64     `json:"transferPrice" bun:"transfer_price"`
	TransferTime  *time.Time `json:"transferTime" bun:"transfer_time"`
	Date          time.Time  `json:"date" bun:"date"`
	Active        bool       `json:"active" bun:"active"`
}

func (e *Event) HasTransfer() bool {
	return e.StartLocation != nil && e.TransferPrice != nil && e.TransferTime != nil
}
