package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

func newTestVerifications(t *testing.T) (*Verifications, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewVerifications(client)
	if err != nil {
		t.Fatalf("NewVerifications failed: %v", err)
	}
	return s, mr
}

func TestIssueConsumeRoundTrip(t *testing.T) {
	s, _ := newTestVerifications(t)
	ctx := context.Background()

	tokenValue, err := s.Issue(ctx, "acc-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(tokenValue) != verificationTokenBytes*2 {
		t.Fatalf("unexpected token length %d", len(tokenValue))
	}

	ownerID, err := s.Consume(ctx, tokenValue)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if ownerID != "acc-1" {
		t.Fatalf("expected owner acc-1, got %q", ownerID)
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	s, _ := newTestVerifications(t)
	ctx := context.Background()

	tokenValue, err := s.Issue(ctx, "acc-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := s.Consume(ctx, tokenValue); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if _, err := s.Consume(ctx, tokenValue); !errors.Is(err, rentauth.ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid on replay, got %v", err)
	}
}

func TestConcurrentConsumeSucceedsExactlyOnce(t *testing.T) {
	s, _ := newTestVerifications(t)
	ctx := context.Background()

	tokenValue, err := s.Issue(ctx, "acc-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Consume(ctx, tokenValue)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, rentauth.ErrVerificationInvalid) {
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", succeeded)
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	s, _ := newTestVerifications(t)

	if _, err := s.Consume(context.Background(), "no-such-token"); !errors.Is(err, rentauth.ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid, got %v", err)
	}
	if _, err := s.Consume(context.Background(), ""); !errors.Is(err, rentauth.ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid for empty token, got %v", err)
	}
}

func TestConsumeAfterKeyExpiry(t *testing.T) {
	s, mr := newTestVerifications(t)
	ctx := context.Background()

	tokenValue, err := s.Issue(ctx, "acc-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := s.Consume(ctx, tokenValue); !errors.Is(err, rentauth.ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid after purge, got %v", err)
	}
}

func TestConsumeChecksRecordExpiry(t *testing.T) {
	s, _ := newTestVerifications(t)
	ctx := context.Background()

	// The key purge can lag the logical expiry; the timestamp inside the
	// record must still block redemption, even within the same wall-clock
	// second.
	tokenValue, err := s.Issue(ctx, "acc-1", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := s.Consume(ctx, tokenValue); !errors.Is(err, rentauth.ErrVerificationExpired) {
		t.Fatalf("expected ErrVerificationExpired, got %v", err)
	}
}

func TestIssueValidatesInput(t *testing.T) {
	s, _ := newTestVerifications(t)

	if _, err := s.Issue(context.Background(), "", time.Hour); err == nil {
		t.Fatal("expected missing owner to be rejected")
	}
	if _, err := s.Issue(context.Background(), "acc-1", 0); err == nil {
		t.Fatal("expected zero ttl to be rejected")
	}
}
