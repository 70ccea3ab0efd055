package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

const seenTTL = 48 * time.Hour

// MarkPayload records a successful-payment payload for a payer. It returns
// false when the same payer+payload pair was already recorded, meaning a
// replayed confirmation that must not produce a second payment row.
func (r *Redis) MarkPayload(userID int64, payload string) (bool, error) {
	key := fmt.Sprintf("payment_seen:%d:%s", userID, payload)
	ok, err := r.Client.SetNX(context.Background(), key, 1, seenTTL).Result()
	return ok, err
}
