package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment is a completed purchase. Rows are insert-only: one row per verified
// successful payment, never mutated afterwards.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID                    int64     `json:"id" bun:"id,pk,autoincrement"`
	EventID               int64     `json:"eventID" bun:"event_id"`
	UserID                int64     `json:"userID" bun:"user_id"`
	Amount                int64     `json:"amount" bun:"amount"`
	Timestamp             time.Time `json:"timestamp" bun:"timestamp"`
	IsTransfer            bool      `json:"isTransfer" bun:"is_transfer"`
	TransferStartLocation *string   `json:"transferStartLocation" bun:"transfer_start_location"`
	Time                  time.Time `json:"time" bun:"time"`
	Quantity              int       `json:"quantity" bun:"quantity"`
}

// UserPayment is a payment row joined with the owning event's title, as
// rendered in the ticket history listing.
type UserPayment struct {
	EventTitle string `json:"eventTitle"`
	Payment
}

type PaymentEvent struct {
	Type      string    `json:"type"`
	Payment   *Payment  `json:"payment"`
	Timestamp time.Time `json:"timestamp"`
}
