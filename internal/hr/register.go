package hr

import (
	"context"
	"fmt"
	"time"
)

// Register is the orchestration layer that ties the record store, audit ledger,
// attachments, settings and backups together for the CLI and HTTP layers.
type Register struct {
	Records     *RecordStore
	Audit       *AuditLog
	Attachments *Attachments
	Settings    *Settings
	Backups     *BackupManager

	logger Logger
	clock  Clock
}

// RegisterOptions carries the dependencies of a Register. Vault and AttachmentStore
// may be nil.
type RegisterOptions struct {
	KV              KeyValueStore
	AttachmentStore AttachmentStore
	Vault           Vault
	AuditCapacity   int
	Logger          Logger
	Clock           Clock
	IDGen           IDGenerator
}

// NewRegister wires the components of the register over the given backends.
func NewRegister(opts RegisterOptions) *Register {
	logger := opts.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	idgen := opts.IDGen
	if idgen == nil {
		idgen = UUIDGenerator{}
	}

	audit := NewAuditLog(opts.KV, clock, idgen, opts.AuditCapacity)
	var attachments *Attachments
	if opts.AttachmentStore != nil {
		attachments = NewAttachments(opts.AttachmentStore, logger, clock, idgen)
	}
	records := NewRecordStore(opts.KV, audit, attachments, logger, clock, idgen)
	settings := NewSettings(opts.KV)

	return &Register{
		Records:     records,
		Audit:       audit,
		Attachments: attachments,
		Settings:    settings,
		Backups:     NewBackupManager(records, audit, settings, opts.Vault, logger, clock),
		logger:      logger,
		clock:       clock,
	}
}

// HindranceView is a record together with its derived status at the time of the read.
type HindranceView struct {
	Record          *Hindrance `json:"record"`
	EffectiveStatus Status     `json:"effectiveStatus"`
	DaysPending     int        `json:"daysPending"`
}

// View returns the record with the given id and its derived status, or nil if none exists.
func (r *Register) View(ctx context.Context, id string) (*HindranceView, error) {
	h, err := r.Records.GetByID(ctx, id)
	if err != nil || h == nil {
		return nil, err
	}
	sla, err := r.Settings.SLAThreshold(ctx)
	if err != nil {
		return nil, err
	}
	return newView(h, sla, r.clock), nil
}

// Views returns every record with its derived status, all evaluated at the same instant.
func (r *Register) Views(ctx context.Context) ([]*HindranceView, error) {
	list, err := r.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	sla, err := r.Settings.SLAThreshold(ctx)
	if err != nil {
		return nil, err
	}
	now := r.clock.Now()
	views := make([]*HindranceView, 0, len(list))
	for _, h := range list {
		views = append(views, &HindranceView{
			Record:          h,
			EffectiveStatus: DeriveStatus(h, sla, now),
			DaysPending:     daysPending(h, now),
		})
	}
	return views, nil
}

// Stats aggregates the register for the dashboard.
func (r *Register) Stats(ctx context.Context) (*Stats, error) {
	list, err := r.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	sla, err := r.Settings.SLAThreshold(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(list, sla, r.clock.Now()), nil
}

// Seed is the initial content written by Initialize.
type Seed struct {
	Users         []*User
	ProjectConfig *ProjectConfig
	SystemConfig  *SystemConfig
}

// DefaultSeed returns a single active administrator with the given password and the
// default configuration documents.
func DefaultSeed(adminPassword string) Seed {
	return Seed{
		Users: []*User{{
			Username: "admin",
			Password: adminPassword,
			FullName: "Administrator",
			Role:     RoleAdmin,
			Active:   true,
		}},
		ProjectConfig: DefaultProjectConfig(),
		SystemConfig:  DefaultSystemConfig(),
	}
}

// Initialize writes the seed into every collection that does not exist yet. Existing data
// is never touched, so it is safe to call on every start.
func (r *Register) Initialize(ctx context.Context, seed Seed) error {
	seededUsers, err := r.Records.SeedUsers(ctx, seed.Users)
	if err != nil {
		return fmt.Errorf("initializing users: %w", err)
	}

	r.Records.hindranceMu.Lock()
	data, err := r.Records.kv.Get(ctx, CollectionHindrances)
	if err == nil && data == nil {
		err = saveJSON(ctx, r.Records.kv, CollectionHindrances, []*Hindrance{})
	}
	r.Records.hindranceMu.Unlock()
	if err != nil {
		return fmt.Errorf("initializing hindrances: %w", err)
	}

	project, system := seed.ProjectConfig, seed.SystemConfig
	if project == nil {
		project = DefaultProjectConfig()
	}
	if system == nil {
		system = DefaultSystemConfig()
	}
	r.Settings.mu.Lock()
	err = r.Settings.seedLocked(ctx, project, system)
	r.Settings.mu.Unlock()
	if err != nil {
		return fmt.Errorf("initializing settings: %w", err)
	}

	if seededUsers {
		r.logger.Info("storage initialized", "users", len(seed.Users))
	}
	return nil
}

func newView(h *Hindrance, sla int, clock Clock) *HindranceView {
	now := clock.Now()
	return &HindranceView{
		Record:          h,
		EffectiveStatus: DeriveStatus(h, sla, now),
		DaysPending:     daysPending(h, now),
	}
}

// daysPending is the age of an open record, or its start-to-removal span once removed.
func daysPending(h *Hindrance, now time.Time) int {
	if h.IsRemoved() {
		return DaysBetween(h.StartDate, *h.RemovalDate)
	}
	return DaysSince(h.StartDate, now)
}
