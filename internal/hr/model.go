package hr

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a hindrance record. The stored value is only a hint set
// by user actions; the displayed state always comes from DeriveStatus.
type Status string

const (
	StatusActive          Status = "Active"
	StatusResolved        Status = "Resolved"
	StatusOverdue         Status = "Overdue"
	StatusPendingApproval Status = "Pending Approval"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusActive, StatusResolved, StatusOverdue, StatusPendingApproval}

// Fields is an opaque field bag used for record creation and partial updates.
type Fields map[string]any

// DateLayout is the sortable storage form of calendar dates.
const DateLayout = "2006-01-02"

// Hindrance is a single entry of the hindrance register. Only the fields the register
// itself interprets are typed; every other field (nature, severity, impact figures and
// whatever else a client sends) lives in Extra as supplied and is read with Text, Number
// and WorkPhases.
type Hindrance struct {
	ID             string  `json:"id"`
	SrNo           string  `json:"srNo"`
	Status         Status  `json:"status"`
	DateOccurrence string  `json:"dateOccurrence"`
	StartDate      string  `json:"startDate"`
	RemovalDate    *string `json:"removalDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type hindranceJSON Hindrance

func (h Hindrance) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(hindranceJSON(h), h.Extra)
}

func (h *Hindrance) UnmarshalJSON(data []byte) error {
	var raw hindranceJSON
	extra, err := decodeWithExtra(data, &raw)
	if err != nil {
		return err
	}
	*h = Hindrance(raw)
	h.Extra = extra
	return nil
}

// Clone returns a deep copy of h.
func (h *Hindrance) Clone() *Hindrance {
	c := *h
	c.RemovalDate = cloneString(h.RemovalDate)
	c.Extra = cloneExtra(h.Extra)
	return &c
}

// IsRemoved reports whether a removal date has been recorded.
func (h *Hindrance) IsRemoved() bool {
	return h.RemovalDate != nil && *h.RemovalDate != ""
}

// User is an account of the register. Password is an opaque secret; hashing is a
// concern of the caller.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	FullName  string     `json:"fullName,omitempty"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`

	Extra map[string]json.RawMessage `json:"-"`
}

type userJSON User

func (u User) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(userJSON(u), u.Extra)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw userJSON
	extra, err := decodeWithExtra(data, &raw)
	if err != nil {
		return err
	}
	*u = User(raw)
	u.Extra = extra
	return nil
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	c.Extra = cloneExtra(u.Extra)
	return &c
}

// Role names used by the default seed.
const (
	RoleAdmin        = "admin"
	RoleSiteIncharge = "site_incharge"
	RoleSupervisor   = "supervisor"
	RoleConsultant   = "consultant"
)

// Action is the kind of mutation recorded in the audit ledger.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity tags the type of the audited subject.
type Entity string

const (
	EntityHindrance Entity = "hindrance"
	EntityUser      Entity = "user"
)

// AuditEntry is one immutable line of the audit ledger. OldValue and NewValue are JSON
// snapshots taken at the time of the mutation; either may be JSON null.
type AuditEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	User      string          `json:"user"`
	Action    Action          `json:"action"`
	Entity    Entity          `json:"entity"`
	EntityID  string          `json:"entityId"`
	OldValue  json.RawMessage `json:"oldValue"`
	NewValue  json.RawMessage `json:"newValue"`
}

// HasOldValue reports whether the entry carries a pre-mutation snapshot.
func (e *AuditEntry) HasOldValue() bool { return !isNullJSON(e.OldValue) }

// HasNewValue reports whether the entry carries a post-mutation snapshot.
func (e *AuditEntry) HasNewValue() bool { return !isNullJSON(e.NewValue) }

// Attachment is a binary file owned by exactly one hindrance record.
// Data is a self-describing data URI (see EncodeDataURI).
type Attachment struct {
	ID          string    `json:"id"`
	HindranceID string    `json:"hindranceId"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mimeType"`
	Data        string    `json:"data"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ProjectConfig describes the construction contract the register belongs to.
type ProjectConfig struct {
	ProjectName      string  `json:"projectName"`
	Location         string  `json:"location"`
	ContractNo       string  `json:"contractNo"`
	AgreementDate    string  `json:"agreementDate"`
	ContractorName   string  `json:"contractorName"`
	ClientName       string  `json:"clientName"`
	CommencementDate string  `json:"commencementDate"`
	CompletionDate   string  `json:"completionDate"`
	ContractAmount   float64 `json:"contractAmount"`

	Extra map[string]json.RawMessage `json:"-"`
}

type projectConfigJSON ProjectConfig

func (p ProjectConfig) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(projectConfigJSON(p), p.Extra)
}

func (p *ProjectConfig) UnmarshalJSON(data []byte) error {
	var raw projectConfigJSON
	extra, err := decodeWithExtra(data, &raw)
	if err != nil {
		return err
	}
	*p = ProjectConfig(raw)
	p.Extra = extra
	return nil
}

// DefaultSLAThresholdDays applies when the system configuration carries no positive threshold.
const DefaultSLAThresholdDays = 5

// SystemConfig holds register-wide settings, most importantly the SLA threshold.
type SystemConfig struct {
	SLAThresholdDays int      `json:"slaThresholdDays"`
	Approvers        []string `json:"approvers"`
	DarkMode         bool     `json:"darkMode"`
	AutoBackup       bool     `json:"autoBackup"`
	DateFormat       string   `json:"dateFormat"`
	Currency         string   `json:"currency"`
	CurrencySymbol   string   `json:"currencySymbol"`

	Extra map[string]json.RawMessage `json:"-"`
}

type systemConfigJSON SystemConfig

func (s SystemConfig) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(systemConfigJSON(s), s.Extra)
}

func (s *SystemConfig) UnmarshalJSON(data []byte) error {
	var raw systemConfigJSON
	extra, err := decodeWithExtra(data, &raw)
	if err != nil {
		return err
	}
	*s = SystemConfig(raw)
	s.Extra = extra
	return nil
}

// SLAThreshold returns the effective SLA threshold in days.
func (s *SystemConfig) SLAThreshold() int {
	if s == nil || s.SLAThresholdDays <= 0 {
		return DefaultSLAThresholdDays
	}
	return s.SLAThresholdDays
}

// DefaultProjectConfig is used until a project configuration has been saved.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		ProjectName:    "Construction Project",
		ContractAmount: 0,
	}
}

// DefaultSystemConfig is used until a system configuration has been saved.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		SLAThresholdDays: DefaultSLAThresholdDays,
		Approvers:        []string{},
		AutoBackup:       true,
		DateFormat:       "DD-MM-YYYY",
		Currency:         "INR",
		CurrencySymbol:   "₹",
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// decodeInto round-trips fields through JSON into v, wrapping failures as ErrInvalidFormat.
func decodeInto(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
