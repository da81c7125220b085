package domain

import (
	"time"
)

// User is an acting principal. Superusers bypass every ownership and acceptance check.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	IsSuperuser bool      `json:"is_superuser"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type APIKey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`       // Human-readable label, e.g. "ci-deploy-key"
	KeyHash   string     `json:"-"`          // SHA-256 hash of the key (never store raw)
	KeyPrefix string     `json:"key_prefix"` // First 8 chars for identification
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// OwnershipType classifies a service owner.
type OwnershipType string

const (
	OwnershipBusiness  OwnershipType = "BO" // Business Owner
	OwnershipTechnical OwnershipType = "TO" // Technical Owner
)

// Service groups domains and records under a shared set of owners.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UID       string    `json:"uid"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ServiceOwner struct {
	ServiceID     string        `json:"service_id"`
	UserID        string        `json:"user_id"`
	OwnershipType OwnershipType `json:"ownership_type"`
	CreatedAt     time.Time     `json:"created_at"`
}

// EntityKind tags the entity a polymorphic reference points at.
type EntityKind string

const (
	KindDomain EntityKind = "domain"
	KindRecord EntityKind = "record"
)

// Valid reports whether k names an entity that can be targeted by requests.
func (k EntityKind) Valid() bool {
	return k == KindDomain || k == KindRecord
}

// Authorisation grants a user the right to mutate one specific entity.
type Authorisation struct {
	ID           string     `json:"id"`
	TargetKind   EntityKind `json:"target_kind"`
	TargetID     string     `json:"target_id"`
	AuthorisedID string     `json:"authorised_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Action is the kind of mutation being decided on.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Ownable is implemented by entities that take part in ownership checks.
type Ownable interface {
	Kind() EntityKind
	EntityID() string
	Owner() *string
	Service() *string
}

func (d *Domain) Kind() EntityKind  { return KindDomain }
func (d *Domain) EntityID() string  { return d.ID }
func (d *Domain) Owner() *string    { return d.OwnerID }
func (d *Domain) Service() *string  { return d.ServiceID }
func (r *Record) Kind() EntityKind  { return KindRecord }
func (r *Record) EntityID() string  { return r.ID }
func (r *Record) Owner() *string    { return r.OwnerID }
func (r *Record) Service() *string  { return r.ServiceID }
