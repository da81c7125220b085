package domain

import (
	"time"
)

// RequestState is the lifecycle state of a change request.
type RequestState string

const (
	StateOpen     RequestState = "OPEN"
	StateAccepted RequestState = "ACCEPTED"
	StateRejected RequestState = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s RequestState) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// RequestKind distinguishes the three request tables.
type RequestKind string

const (
	KindDomainRequest RequestKind = "domain-request"
	KindRecordRequest RequestKind = "record-request"
	KindDeleteRequest RequestKind = "delete-request"
)

// Valid reports whether k is a known request kind.
func (k RequestKind) Valid() bool {
	switch k {
	case KindDomainRequest, KindRecordRequest, KindDeleteRequest:
		return true
	}
	return false
}

// Request holds the fields shared by every request kind.
type Request struct {
	ID             string       `json:"id"`
	Key            string       `json:"key"`
	OwnerID        string       `json:"owner_id"` // requester
	State          RequestState `json:"state"`
	LastChangeJSON *Change      `json:"last_change_json,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Header returns the shared request fields.
func (r *Request) Header() *Request { return r }

// DomainRequest proposes the creation or modification of a Domain.
type DomainRequest struct {
	Request
	DomainID          *string    `json:"domain_id,omitempty"`
	ParentDomainID    *string    `json:"parent_domain_id,omitempty"`
	Name              string     `json:"name"`
	Master            string     `json:"master,omitempty"`
	Type              DomainType `json:"type,omitempty"`
	Account           string     `json:"account,omitempty"`
	Remarks           string     `json:"remarks,omitempty"`
	TemplateID        *string    `json:"template_id,omitempty"`
	ReverseTemplateID *string    `json:"reverse_template_id,omitempty"`
	AutoPtr           AutoPtr    `json:"auto_ptr"`
	Unrestricted      bool       `json:"unrestricted"`
	TargetOwnerID     *string    `json:"target_owner_id,omitempty"`
	ServiceID         *string    `json:"service_id,omitempty"`
}

// RecordRequest proposes the creation or modification of a Record.
type RecordRequest struct {
	Request
	DomainID      string     `json:"domain_id"`
	RecordID      *string    `json:"record_id,omitempty"`
	Name          string     `json:"name"`
	Type          RecordType `json:"type"`
	Content       string     `json:"content"`
	TTL           int        `json:"ttl"`
	Priority      *int       `json:"prio,omitempty"`
	Auth          bool       `json:"auth"`
	Disabled      bool       `json:"disabled"`
	Remarks       string     `json:"remarks,omitempty"`
	TargetOwnerID *string    `json:"target_owner_id,omitempty"`
	ServiceID     *string    `json:"service_id,omitempty"`
	AutoPtr       *AutoPtr   `json:"auto_ptr,omitempty"`
}

// DeleteRequest proposes the deletion of any target entity.
type DeleteRequest struct {
	Request
	TargetKind EntityKind `json:"target_kind"`
	TargetID   string     `json:"target_id"`
}

// HistoryDumper exposes a flat field snapshot used for diff journaling.
type HistoryDumper interface {
	AsHistoryDump() HistoryDump
	AsEmptyHistory() HistoryDump
}

func (r *Record) AsHistoryDump() HistoryDump {
	return recordDump(r.Content, r.Name, r.OwnerID, r.Priority, r.Remarks, r.TTL, r.Type)
}

func (r *Record) AsEmptyHistory() HistoryDump { return r.AsHistoryDump().Empty() }

func (r *RecordRequest) AsHistoryDump() HistoryDump {
	return recordDump(r.Content, r.Name, r.TargetOwnerID, r.Priority, r.Remarks, r.TTL, r.Type)
}

func (r *RecordRequest) AsEmptyHistory() HistoryDump { return r.AsHistoryDump().Empty() }

func (d *Domain) AsHistoryDump() HistoryDump {
	return domainDump(d.Name, d.Master, d.Type, d.Account, d.Remarks, d.OwnerID,
		d.TemplateID, d.ReverseTemplateID, d.AutoPtr, d.Unrestricted, d.ServiceID)
}

func (d *Domain) AsEmptyHistory() HistoryDump { return d.AsHistoryDump().Empty() }

func (r *DomainRequest) AsHistoryDump() HistoryDump {
	return domainDump(r.Name, r.Master, r.Type, r.Account, r.Remarks, r.TargetOwnerID,
		r.TemplateID, r.ReverseTemplateID, r.AutoPtr, r.Unrestricted, r.ServiceID)
}

func (r *DomainRequest) AsEmptyHistory() HistoryDump { return r.AsHistoryDump().Empty() }

func recordDump(content, name string, owner *string, prio *int, remarks string, ttl int, typ RecordType) HistoryDump {
	var prioVal any = ""
	if prio != nil {
		prioVal = *prio
	}
	var ttlVal any = ""
	if ttl != 0 {
		ttlVal = ttl
	}
	return HistoryDump{
		"content": content,
		"name":    name,
		"owner":   deref(owner),
		"prio":    prioVal,
		"remarks": remarks,
		"ttl":     ttlVal,
		"type":    string(typ),
	}
}

func domainDump(name, master string, typ DomainType, account, remarks string, owner, tpl, revTpl *string,
	autoPtr AutoPtr, unrestricted bool, service *string) HistoryDump {
	return HistoryDump{
		"name":             name,
		"master":           master,
		"type":             string(typ),
		"account":          account,
		"remarks":          remarks,
		"owner":            deref(owner),
		"template":         deref(tpl),
		"reverse_template": deref(revTpl),
		"auto_ptr":         string(autoPtr),
		"unrestricted":     unrestricted,
		"service":          deref(service),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
