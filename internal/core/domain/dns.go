// Package domain contains the core business entities and rules for dnsaas.
package domain

import (
	"time"
)

// RecordType represents the type of a DNS record (e.g., A, AAAA, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeAAAA represents an IPv6 address record.
	TypeAAAA RecordType = "AAAA"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
	// TypeNS represents a name server record.
	TypeNS RecordType = "NS"
	// TypeSOA represents a start of authority record.
	TypeSOA RecordType = "SOA"
	// TypePTR represents a pointer record.
	TypePTR RecordType = "PTR"
	// TypeSRV represents a service locator record (RFC 2782).
	TypeSRV RecordType = "SRV"
	// TypeNAPTR represents a naming authority pointer record (RFC 3403).
	TypeNAPTR RecordType = "NAPTR"
)

// DomainType is the PowerDNS replication kind of a domain.
type DomainType string

const (
	DomainMaster DomainType = "MASTER"
	DomainNative DomainType = "NATIVE"
	DomainSlave  DomainType = "SLAVE"
)

// AutoPtr controls whether PTR records are synthesized for A/AAAA records.
type AutoPtr string

const (
	// AutoPtrNever never creates PTR records.
	AutoPtrNever AutoPtr = "NEVER"
	// AutoPtrAlways creates the reverse domain when needed.
	AutoPtrAlways AutoPtr = "ALWAYS"
	// AutoPtrOnlyIfDomain creates a PTR only inside an existing reverse domain.
	AutoPtrOnlyIfDomain AutoPtr = "ONLY_IF_DOMAIN"
)

// Valid reports whether p is one of the known policies.
func (p AutoPtr) Valid() bool {
	switch p {
	case AutoPtrNever, AutoPtrAlways, AutoPtrOnlyIfDomain:
		return true
	}
	return false
}

// Domain represents a PowerDNS zone together with its dnsaas ownership settings.
type Domain struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"` // e.g., example.com (no trailing dot)
	Master               string     `json:"master,omitempty"`
	Type                 DomainType `json:"type,omitempty"`
	Account              string     `json:"account,omitempty"`
	Remarks              string     `json:"remarks,omitempty"`
	OwnerID              *string    `json:"owner_id,omitempty"`
	ServiceID            *string    `json:"service_id,omitempty"`
	TemplateID           *string    `json:"template_id,omitempty"`
	ReverseTemplateID    *string    `json:"reverse_template_id,omitempty"`
	Unrestricted         bool       `json:"unrestricted"`
	RequireSecAcceptance bool       `json:"require_sec_acceptance"`
	RequireSeoAcceptance bool       `json:"require_seo_acceptance"`
	AutoPtr              AutoPtr    `json:"auto_ptr"`
	NotifiedSerial       *int64     `json:"notified_serial,omitempty"` // maintained by PowerDNS
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Record represents a DNS resource record within a domain.
type Record struct {
	ID          string     `json:"id"`
	DomainID    string     `json:"domain_id"`
	Name        string     `json:"name"` // fully qualified, e.g., www.example.com
	Type        RecordType `json:"type"`
	Content     string     `json:"content"`
	TTL         int        `json:"ttl"`
	Priority    *int       `json:"prio,omitempty"` // For MX, SRV records
	Auth        bool       `json:"auth"`
	Disabled    bool       `json:"disabled"`
	Remarks     string     `json:"remarks,omitempty"`
	OwnerID     *string    `json:"owner_id,omitempty"`
	ServiceID   *string    `json:"service_id,omitempty"`
	AutoPtr     *AutoPtr   `json:"auto_ptr,omitempty"`      // nil inherits the domain policy
	TemplateID  *string    `json:"template_id,omitempty"`   // RecordTemplate that generated it
	DependsOnID *string    `json:"depends_on_id,omitempty"` // forward record a PTR was made for
	Subtype     string     `json:"subtype,omitempty"`       // auto TXT marker
	ChangeDate  int64      `json:"change_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DomainTemplate is a named, reusable bundle of RecordTemplates.
type DomainTemplate struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	IsPublicDomain bool      `json:"is_public_domain"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordTemplate describes a parameterized record; Name and Content may contain
// the {domain-name} placeholder.
type RecordTemplate struct {
	ID               string     `json:"id"`
	DomainTemplateID string     `json:"domain_template_id"`
	Name             string     `json:"name"`
	Type             RecordType `json:"type"`
	Content          string     `json:"content"`
	TTL              int        `json:"ttl"`
	Priority         *int       `json:"prio,omitempty"`
	Auth             bool       `json:"auth"`
	Remarks          string     `json:"remarks,omitempty"`
	AutoPtr          *AutoPtr   `json:"auto_ptr,omitempty"` // nil inherits the domain policy
	CreatedAt        time.Time  `json:"created_at"`
}

// AuditLog records terminal transitions of change requests.
type AuditLog struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`        // e.g., "ACCEPT_RECORD_REQUEST"
	ResourceType string    `json:"resource_type"` // e.g., "RECORD_REQUEST"
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"` // JSON diff
	CreatedAt    time.Time `json:"created_at"`
}

// ChangeEvent is published after a request has been accepted.
type ChangeEvent struct {
	RequestKind RequestKind `json:"request_kind"`
	RequestID   string      `json:"request_id"`
	TargetKind  EntityKind  `json:"target_kind"`
	TargetID    string      `json:"target_id"`
	Change      *Change     `json:"change"`
	At          time.Time   `json:"at"`
}
