package testutil

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest/observer"

	"hr-go/internal/attachment"
	"hr-go/internal/hr"
	"hr-go/internal/kvstore"
	"hr-go/internal/vault"
)

// Env is a fully wired register over in-memory backends with deterministic
// time and ids.
type Env struct {
	Register    *hr.Register
	KV          *FailingKV
	Attachments *attachment.MemoryStore
	Vault       *vault.MemoryVault
	Clock       *StubClock
	IDGen       *StubIDGenerator
	Logs        *observer.ObservedLogs
}

// EnvOption customizes NewTestEnv.
type EnvOption func(*envOptions)

type envOptions struct {
	auditCapacity int
	kv            hr.KeyValueStore
	clock         *StubClock
}

// WithAuditCapacity bounds the audit ledger of the test register.
func WithAuditCapacity(n int) EnvOption {
	return func(o *envOptions) { o.auditCapacity = n }
}

// WithKV runs the register over kv instead of a fresh memory store.
func WithKV(kv hr.KeyValueStore) EnvOption {
	return func(o *envOptions) { o.kv = kv }
}

// WithClock uses clock instead of FixedClock.
func WithClock(clock *StubClock) EnvOption {
	return func(o *envOptions) { o.clock = clock }
}

// NewTestEnv builds an Env. The collections start absent; call Initialize to seed them.
func NewTestEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	o := envOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.kv == nil {
		o.kv = kvstore.NewMemoryStore()
	}
	if o.clock == nil {
		o.clock = FixedClock()
	}

	kv := NewFailingKV(o.kv)
	t.Cleanup(func() { kv.Close() })
	store := NewTestAttachmentStore(t)
	v := NewTestVault()
	idgen := NewStubIDGenerator()
	logger, logs := NewObservedLogger()

	reg := hr.NewRegister(hr.RegisterOptions{
		KV:              kv,
		AttachmentStore: store,
		Vault:           v,
		AuditCapacity:   o.auditCapacity,
		Logger:          logger,
		Clock:           o.clock,
		IDGen:           idgen,
	})

	return &Env{
		Register:    reg,
		KV:          kv,
		Attachments: store,
		Vault:       v,
		Clock:       o.clock,
		IDGen:       idgen,
		Logs:        logs,
	}
}

// Initialize seeds the default collections with admin password "admin123".
func (e *Env) Initialize(t *testing.T) {
	t.Helper()
	if err := e.Register.Initialize(context.Background(), hr.DefaultSeed("admin123")); err != nil {
		t.Fatalf("failed to initialize register: %v", err)
	}
}
