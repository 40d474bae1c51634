package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

const (
	verificationPrefix     = "rentauth:verify:"
	verificationTokenBytes = 32
)

// verificationRecord is the stored token payload. ExpiresAt is in
// nanoseconds so the consume-time check is exact, not rounded to the
// second.
type verificationRecord struct {
	OwnerID   string `json:"owner_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Verifications implements rentauth.VerificationStore on Redis. Tokens are
// random and opaque; the key TTL purges stale entries while the expiry in
// the record guards against redemption through a lagging purge.
type Verifications struct {
	client *redis.Client
}

func NewVerifications(client *redis.Client) (*Verifications, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &Verifications{client: client}, nil
}

// Issue stores a fresh single-use token for ownerID.
func (s *Verifications) Issue(ctx context.Context, ownerID string, ttl time.Duration) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner id required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	raw := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	tokenValue := hex.EncodeToString(raw)

	record, err := json.Marshal(verificationRecord{
		OwnerID:   ownerID,
		ExpiresAt: time.Now().Add(ttl).UnixNano(),
	})
	if err != nil {
		return "", fmt.Errorf("encode verification record: %w", err)
	}

	if err := s.client.Set(ctx, verificationPrefix+tokenValue, record, ttl).Err(); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	return tokenValue, nil
}

// Consume redeems a token exactly once. GETDEL makes the read and delete
// atomic, so two concurrent consumers can never both succeed.
func (s *Verifications) Consume(ctx context.Context, tokenValue string) (string, error) {
	if tokenValue == "" {
		return "", rentauth.ErrVerificationInvalid
	}

	raw, err := s.client.GetDel(ctx, verificationPrefix+tokenValue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", rentauth.ErrVerificationInvalid
		}
		return "", fmt.Errorf("consume verification token: %w", err)
	}

	var record verificationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", rentauth.ErrVerificationInvalid
	}

	if time.Now().UnixNano() > record.ExpiresAt {
		return "", rentauth.ErrVerificationExpired
	}

	return record.OwnerID, nil
}
