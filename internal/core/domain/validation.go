package domain

import (
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// Names are fully qualified without the trailing dot; PowerDNS treats the whole
// zone as invalid if any record ends with one. A leading "*." wildcard is allowed.
var (
	domainNameRegex = regexp.MustCompile(`^(\*\.)?([_A-Za-z0-9-]+\.)*([A-Za-z0-9])+$`)
	soaNameRegex    = regexp.MustCompile(`^[A-Za-z0-9.-]*$`)
	soaTimeRegex    = regexp.MustCompile(`^[0-9]+$`)
)

// domainNameRecords hold a domain name in their content.
var domainNameRecords = map[RecordType]bool{
	TypeCNAME: true,
	TypeMX:    true,
	TypeNAPTR: true,
	TypeNS:    true,
	TypePTR:   true,
}

// ValidateDomainName checks name against the PowerDNS-safe domain grammar.
func ValidateDomainName(name string) error {
	if name == "" {
		return invalid("name", "domain name cannot be empty")
	}
	if strings.HasSuffix(name, ".") {
		return invalid("name", "domain name %q must not end with a dot", name)
	}
	if !domainNameRegex.MatchString(name) {
		return invalid("name", "%q is not a valid domain name", name)
	}
	if _, ok := dns.IsDomainName(name); !ok || len(name) > 253 {
		return invalid("name", "%q exceeds DNS name length limits", name)
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) > 63 {
			return invalid("name", "label '%s' exceeds 63 characters", label)
		}
	}
	return nil
}

// ValidateSOA checks the 7-field "mname rname serial refresh retry expire minimum" form.
func ValidateSOA(content string) error {
	parts := strings.Fields(content)
	if len(parts) != 7 {
		return invalid("content", "enter a valid SOA record")
	}
	for i, field := range []string{"domain name", "e-mail"} {
		if !soaNameRegex.MatchString(parts[i]) {
			return invalid("content", "incorrect %s, should be a valid domain name", field)
		}
	}
	for i, field := range []string{"serial", "refresh rate", "retry rate", "expiry time", "negative resp. time"} {
		if !soaTimeRegex.MatchString(parts[i+2]) {
			return invalid("content", "incorrect %s, should be a non-negative integer", field)
		}
	}
	return nil
}

// ValidateSRVContent checks the "weight port target" form PowerDNS stores for
// SRV records; the priority lives in the prio column.
func ValidateSRVContent(content string) error {
	parts := strings.Fields(content)
	if len(parts) != 3 {
		return invalid("content", "SRV content must be in format: weight port target")
	}
	for i, name := range []string{"weight", "port"} {
		val, err := strconv.Atoi(parts[i])
		if err != nil || val < 0 || val > 65535 {
			return invalid("content", "invalid %s: %s (must be 0-65535)", name, parts[i])
		}
	}
	if !domainNameRegex.MatchString(parts[2]) {
		return invalid("content", "SRV target %q is not a valid domain name", parts[2])
	}
	return nil
}

// NormalizeName lower-cases a record name.
func NormalizeName(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// NormalizeType upper-cases a record type.
func NormalizeType(t RecordType) RecordType {
	return RecordType(strings.ToUpper(strings.TrimSpace(string(t))))
}

// ValidateRecordContent performs the type-dependent content validation.
// Name and type are expected to be normalized already.
func ValidateRecordContent(t RecordType, name, content string) error {
	if t == "" {
		return invalid("type", "record type is required")
	}
	if err := ValidateDomainName(name); err != nil {
		return err
	}
	switch {
	case t == TypeA:
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is4() {
			return invalid("content", "enter a valid IPv4 address")
		}
	case t == TypeAAAA:
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is6() || addr.Is4In6() {
			return invalid("content", "enter a valid IPv6 address")
		}
	case t == TypeSOA:
		return ValidateSOA(content)
	case t == TypeSRV:
		return ValidateSRVContent(content)
	case domainNameRecords[t]:
		if !domainNameRegex.MatchString(content) {
			return invalid("content", "%q is not a valid domain name", content)
		}
		// Legal with glue records, but not something we allow.
		if name == content {
			return invalid("content", "cannot create record with the same name and content")
		}
	}
	return nil
}

// ConflictError builds the CNAME exclusivity error for the given conflicting record ids.
func ConflictError(t RecordType, ids []string) *ValidationError {
	if t == TypeCNAME {
		return &ValidationError{
			Field:          "name",
			Message:        "cannot create CNAME record, following conflicting records exist",
			ConflictingIDs: ids,
		}
	}
	return &ValidationError{
		Field:          "name",
		Message:        "cannot create a record, following conflicting CNAME record exists",
		ConflictingIDs: ids,
	}
}

// Conflicts returns the ids of existing records at the same name that cannot
// coexist with a candidate of type t. selfID is excluded.
func Conflicts(t RecordType, selfID string, sameName []Record) []string {
	var ids []string
	for _, r := range sameName {
		if selfID != "" && r.ID == selfID {
			continue
		}
		if t == TypeCNAME || r.Type == TypeCNAME {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
