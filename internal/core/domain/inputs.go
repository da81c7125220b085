package domain

// RecordFields carries proposed record values. Nil fields keep the current
// value on update and fall back to defaults on create.
type RecordFields struct {
	Key       string      `json:"key,omitempty"`
	DomainID  string      `json:"domain_id"`
	Name      *string     `json:"name,omitempty"`
	Type      *RecordType `json:"type,omitempty"`
	Content   *string     `json:"content,omitempty"`
	TTL       *int        `json:"ttl,omitempty"`
	Priority  *int        `json:"prio,omitempty"`
	Auth      *bool       `json:"auth,omitempty"`
	Disabled  *bool       `json:"disabled,omitempty"`
	Remarks   *string     `json:"remarks,omitempty"`
	OwnerID   *string     `json:"owner_id,omitempty"`
	ServiceID *string     `json:"service_id,omitempty"`
	AutoPtr   *AutoPtr    `json:"auto_ptr,omitempty"`
}

// DomainFields carries proposed domain values, with the same nil semantics as RecordFields.
type DomainFields struct {
	Key               string      `json:"key,omitempty"`
	ParentDomainID    *string     `json:"parent_domain_id,omitempty"`
	Name              *string     `json:"name,omitempty"`
	Master            *string     `json:"master,omitempty"`
	Type              *DomainType `json:"type,omitempty"`
	Account           *string     `json:"account,omitempty"`
	Remarks           *string     `json:"remarks,omitempty"`
	TemplateID        *string     `json:"template_id,omitempty"`
	ReverseTemplateID *string     `json:"reverse_template_id,omitempty"`
	AutoPtr           *AutoPtr    `json:"auto_ptr,omitempty"`
	Unrestricted      *bool       `json:"unrestricted,omitempty"`
	OwnerID           *string     `json:"owner_id,omitempty"`
	ServiceID         *string     `json:"service_id,omitempty"`
}

// AutoTXT is one auto-maintained TXT record, keyed by name and subtype.
type AutoTXT struct {
	Name    string `json:"name"`
	Subtype string `json:"subtype"`
	Content string `json:"content"`
}

// Disposition is what happened to a proposed mutation.
type Disposition string

const (
	DispositionCreated Disposition = "created" // auto-accepted create
	DispositionUpdated Disposition = "updated" // auto-accepted update
	DispositionDeleted Disposition = "deleted" // auto-accepted delete
	DispositionQueued  Disposition = "queued"  // OPEN request awaiting review
	DispositionPending Disposition = "pending" // an OPEN request already exists
	DispositionClosed  Disposition = "closed"  // accepted/rejected by an administrator
)

// Outcome describes the result of a request entry point.
type Outcome struct {
	Disposition       Disposition    `json:"disposition"`
	AutoAccepted      bool           `json:"auto_accepted"`
	RecordRequest     *RecordRequest `json:"record_request,omitempty"`
	DomainRequest     *DomainRequest `json:"domain_request,omitempty"`
	DeleteRequest     *DeleteRequest `json:"delete_request,omitempty"`
	Record            *Record        `json:"record,omitempty"`
	Domain            *Domain        `json:"domain,omitempty"`
	PendingRequestIDs []string       `json:"pending_request_ids,omitempty"`
}
