package prepwise

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/internal/logging"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	cfg := DefaultConfig()
	cfg.Audit.Enabled = false
	e, err := New().WithAuditSink(sink).WithConfig(cfg).WithVerifier(newFakeVerifier()).WithProfileStore(newCountingStore()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	e.Register(context.Background(), RegisterRequest{IdentityID: "u", DisplayName: "ada", Email: "a@b.co"})
	e.Close()

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no audit events, got %d", got)
	}
}

func TestAuditSignInEventFields(t *testing.T) {
	v := newFakeVerifier()
	v.users["ada@example.com"] = identity.Account{UID: "uid-1"}
	sink := NewChannelSink(8)
	e, err := New().WithVerifier(v).WithProfileStore(newCountingStore()).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	ctx := WithRequestID(WithClientIP(context.Background(), "203.0.113.9"), "req-42")
	e.SignIn(ctx, newMemJar(nil), SignInRequest{Email: "ada@example.com", IDToken: "uid-1"})

	created := nextEvent(t, sink)
	if created.EventType != auditEventSessionCreated || !created.Success {
		t.Fatalf("unexpected first event: %+v", created)
	}
	signedIn := nextEvent(t, sink)
	if signedIn.EventType != auditEventSignInSuccess || signedIn.UserID != "uid-1" {
		t.Fatalf("unexpected second event: %+v", signedIn)
	}
	if signedIn.IP != "203.0.113.9" || signedIn.Metadata["request_id"] != "req-42" {
		t.Fatalf("expected ip and request id on event, got %+v", signedIn)
	}
}

func TestAuditFailureCarriesProviderCode(t *testing.T) {
	sink := NewChannelSink(8)
	e, err := New().WithVerifier(newFakeVerifier()).WithProfileStore(newCountingStore()).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	e.SignIn(context.Background(), newMemJar(nil), SignInRequest{Email: "nobody@example.com", IDToken: "x"})

	ev := nextEvent(t, sink)
	if ev.Success || ev.EventType != auditEventSignInFailure {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Error != identity.CodeUserNotFound {
		t.Fatalf("expected provider code, got %q", ev.Error)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	v := newFakeVerifier()
	v.users["ada@example.com"] = identity.Account{UID: "uid-1"}
	var buf syncBuffer
	e, err := New().WithVerifier(v).WithProfileStore(newCountingStore()).WithAuditSink(NewJSONWriterSink(&buf)).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	const idToken = "id-token-very-secret"
	jar := newMemJar(nil)
	e.SignIn(context.Background(), jar, SignInRequest{Email: "ada@example.com", IDToken: idToken})
	cookie := jar.last(t).Value
	e.SignOut(context.Background(), newMemJar(map[string]string{"session": cookie}))
	e.Close()

	out := buf.String()
	if out == "" {
		t.Fatal("expected audit output")
	}
	if strings.Contains(out, idToken) || strings.Contains(out, cookie) {
		t.Fatalf("audit output leaked a credential: %s", out)
	}
}

func TestAuditBufferFullDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: false}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditDispatcherCloseIdempotent(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestLoggerSinkWritesStructuredRecord(t *testing.T) {
	var buf syncBuffer
	logger, err := logging.New(&buf, "json", "debug")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	sink := NewLoggerSink(logger)

	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventRegisterFailure,
		UserID:    "u1",
		Error:     identity.CodeEmailAlreadyExists,
		Metadata:  map[string]string{"reason": "email_in_use"},
	})

	out := buf.String()
	for _, want := range []string{`"event_type":"register_failure"`, `"level":"WARN"`, `"module":"audit"`, `"reason":"email_in_use"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}
