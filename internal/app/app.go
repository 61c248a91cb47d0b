package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"hr-go/internal/attachment"
	"hr-go/internal/config"
	"hr-go/internal/hr"
	"hr-go/internal/kvstore"
	"hr-go/internal/logging"
	"hr-go/internal/vault"
)

// HRApp is the application layer between the CLI/HTTP surfaces and the register.
// It constructs all backends from config, exposes high-level operations that accept
// raw references (record id or srNo, user id or username), and releases everything on
// Close.
type HRApp struct {
	cfg         *config.Config
	kv          hr.KeyValueStore
	attachments hr.AttachmentStore
	vault       hr.Vault
	register    *hr.Register
	logger      hr.Logger
	zl          *zap.Logger
	clock       hr.Clock
	op          *Operation
	logFile     *os.File
}

// Option customizes NewHRApp.
type Option func(*options)

type options struct {
	clock   hr.Clock
	idgen   hr.IDGenerator
	console io.Writer
}

// WithClock replaces the wall clock.
func WithClock(c hr.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(g hr.IDGenerator) Option {
	return func(o *options) { o.idgen = g }
}

// WithConsole sends console log output to w instead of stderr.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// NewHRApp creates a fully wired HRApp from the given config and initializes empty
// storage with the configured seed. operation identifies the command being run
// (e.g. "RecordAdd", "Serve"). The caller must call Close when done.
func NewHRApp(ctx context.Context, cfg *config.Config, operation string, opts ...Option) (_ *HRApp, err error) {
	o := options{clock: hr.RealClock{}, idgen: hr.UUIDGenerator{}, console: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logDir := cfg.LogDir
	if logDir == "" {
		return nil, fmt.Errorf("no log_dir configured")
	}

	a := &HRApp{cfg: cfg, clock: o.clock}
	a.op = NewOperation(operation, "", o.clock.Now())

	// release whatever was opened if a later step fails
	defer func() {
		if err != nil {
			a.closeBackends()
			if a.logFile != nil {
				a.logFile.Close()
			}
		}
	}()

	a.zl, a.logFile, err = newLogger(logDir, a.op.ID, level, o.console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logging.NewZapLogger(a.zl)

	a.kv, err = kvstore.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	if s, ok := a.kv.(*kvstore.SQLiteStore); ok {
		if err := s.CheckMigrations(); err != nil {
			return nil, fmt.Errorf("database schema out of date: %w", err)
		}
	}

	a.attachments, err = attachment.NewFromConfig(cfg.Attachments)
	if err != nil {
		return nil, fmt.Errorf("creating attachment store: %w", err)
	}
	if err = a.attachments.Open(ctx); err != nil {
		return nil, fmt.Errorf("opening attachment store: %w", err)
	}

	if len(cfg.Vaults) > 0 {
		a.vault, err = vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	a.register = hr.NewRegister(hr.RegisterOptions{
		KV:              a.kv,
		AttachmentStore: a.attachments,
		Vault:           a.vault,
		AuditCapacity:   cfg.Audit.MaxEntries,
		Logger:          a.logger,
		Clock:           o.clock,
		IDGen:           o.idgen,
	})

	if err = a.register.Initialize(ctx, seedFromConfig(cfg)); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	a.logger.Debug("app ready", "operation", operation, "store", cfg.Store.Type, "attachments", cfg.Attachments.Type)
	return a, nil
}

func seedFromConfig(cfg *config.Config) hr.Seed {
	password := cfg.Defaults.AdminPassword
	if password == "" {
		password = config.DefaultAdminPassword
	}
	seed := hr.DefaultSeed(password)
	if cfg.Defaults.SLAThresholdDays > 0 {
		seed.SystemConfig.SLAThresholdDays = cfg.Defaults.SLAThresholdDays
	}
	return seed
}

// Register returns the underlying register.
func (a *HRApp) Register() *hr.Register { return a.register }

// Config returns the configuration the app was built from.
func (a *HRApp) Config() *config.Config { return a.cfg }

// Operation returns the operation being tracked.
func (a *HRApp) Operation() *Operation { return a.op }

// Logger returns the app's logger.
func (a *HRApp) Logger() hr.Logger { return a.logger }

// track records the outcome of a step of the current operation.
func (a *HRApp) track(err error, mutating bool) {
	if err != nil {
		a.op.Fail(err)
		return
	}
	if mutating {
		a.op.MarkMutating()
	}
}

// Close finalizes the operation and closes all resources.
// When the operation changed the register and auto backup is enabled in the system
// configuration, a snapshot is exported to the vault first. Later failed steps do not
// suppress it.
func (a *HRApp) Close() error {
	var firstErr error
	ctx := context.Background()

	if a.op.Mutating() && a.vault != nil {
		if err := a.autoBackup(ctx); err != nil {
			firstErr = err
		}
	}

	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status(),
		"duration", a.clock.Now().Sub(a.op.StartedAt).String())

	if err := a.closeBackends(); err != nil && firstErr == nil {
		firstErr = err
	}

	if a.zl != nil {
		_ = a.zl.Sync()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func (a *HRApp) autoBackup(ctx context.Context) error {
	system, err := a.register.Settings.SystemConfig(ctx)
	if err != nil {
		return fmt.Errorf("reading system config: %w", err)
	}
	if !system.AutoBackup {
		return nil
	}
	name, err := a.register.Backups.Export(ctx)
	if err != nil {
		return fmt.Errorf("auto backup: %w", err)
	}
	a.logger.Info("auto backup stored", "name", name)
	return nil
}

func (a *HRApp) closeBackends() error {
	var errs []error
	if a.attachments != nil {
		if err := a.attachments.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing attachment store: %w", err))
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	return errors.Join(errs...)
}
