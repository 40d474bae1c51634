package rentauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	t.Cleanup(d.Close)

	d.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess, Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventLoginSuccess || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}

func TestDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled config must not start a dispatcher")
	}
	// Nil dispatchers are safe to use.
	d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the consumer, second fills the buffer, the rest
	// must be dropped without blocking.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under a full buffer")
	}

	close(blocked)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now(),
		EventType: auditEventPasswordChanged,
		AccountID: "acc-1",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("sink output is not valid JSON: %v", err)
	}
	if decoded.EventType != auditEventPasswordChanged || decoded.AccountID != "acc-1" {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	sink := NewChannelSink(32)

	cfg := testEngineConfig()
	cfg.Audit.Enabled = true

	env := &testEnv{
		accounts:      newMemAccounts(),
		verifications: newMemVerifications(),
		mailer:        &memMailer{},
	}
	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(env.accounts).
		WithVerificationStore(env.verifications).
		WithMailer(env.mailer).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.engine = engine
	t.Cleanup(engine.Close)

	env.signupVerified(t, "jane@x.com", "Secret1!")
	if _, err := env.engine.Login(context.Background(), "jane@x.com", "wrong-password"); err == nil {
		t.Fatal("expected login failure")
	}

	seen := map[string]bool{}
	deadline := time.After(time.Second)
	for len(seen) < 3 {
		select {
		case event := <-sink.Events():
			seen[event.EventType] = true
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	for _, want := range []string{auditEventSignupSuccess, auditEventEmailVerified, auditEventLoginFailure} {
		if !seen[want] {
			t.Fatalf("missing audit event %q, saw %v", want, seen)
		}
	}
}
