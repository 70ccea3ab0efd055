package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes a base ticket purchase from a shuttle-transfer purchase.
type Kind string

const (
	KindTicket   Kind = "event"
	KindTransfer Kind = "transfer"
)

// PayloadDateLayout formats the purchased item's reference timestamp inside
// the invoice payload.
const PayloadDateLayout = "02/01/2006 15:04"

var ErrMalformedPayload = errors.New("malformed invoice payload")

// Purchase is the state carried from invoice issuance to payment commit,
// recovered from the opaque payload.
type Purchase struct {
	Kind     Kind
	EventID  int64
	Ref      time.Time
	Quantity int
}

// EncodePayload builds the invoice payload:
// payment_for_<event|transfer>_<event id>_<DD/MM/YYYY HH:MM>_<quantity>.
func EncodePayload(kind Kind, eventID int64, ref time.Time, quantity int) string {
	return fmt.Sprintf("payment_for_%s_%d_%s_%d", kind, eventID, ref.Format(PayloadDateLayout), quantity)
}

// DecodePayload parses the trailing four underscore-delimited tokens,
// tolerating extra underscores inside the fixed prefix. Any token that fails
// its own validation rejects the whole payload.
func DecodePayload(payload string) (*Purchase, error) {
	parts := strings.Split(payload, "_")
	if len(parts) < 5 {
		return nil, ErrMalformedPayload
	}
	tail := parts[len(parts)-4:]

	kind := Kind(tail[0])
	if kind != KindTicket && kind != KindTransfer {
		return nil, ErrMalformedPayload
	}

	eventID, err := strconv.ParseInt(tail[1], 10, 64)
	if err != nil || eventID <= 0 {
		return nil, ErrMalformedPayload
	}

	ref, err := time.Parse(PayloadDateLayout, tail[2])
	if err != nil {
		return nil, ErrMalformedPayload
	}

	quantity, err := strconv.Atoi(tail[3])
	if err != nil || quantity < 1 || quantity > 10 {
		return nil, ErrMalformedPayload
	}

	return &Purchase{Kind: kind, EventID: eventID, Ref: ref, Quantity: quantity}, nil
}
