package domain

import (
	"net/netip"
	"strings"

	"github.com/miekg/dns"
)

// DomainNamePlaceholder is substituted with the bound domain's name.
const DomainNamePlaceholder = "{domain-name}"

// FormatRecursive substitutes {key} placeholders in strings, walking slices and
// maps. Values of other types are returned unchanged.
func FormatRecursive(tpl any, args map[string]string) any {
	switch v := tpl.(type) {
	case string:
		return formatString(v, args)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = formatString(s, args)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = FormatRecursive(item, args)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = formatString(s, args)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = FormatRecursive(item, args)
		}
		return out
	default:
		return tpl
	}
}

func formatString(s string, args map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Render instantiates the template for the given domain.
func (t *RecordTemplate) Render(d *Domain) Record {
	args := map[string]string{"domain-name": d.Name}
	fields := FormatRecursive(map[string]any{
		"name":    t.Name,
		"content": t.Content,
	}, args).(map[string]any)

	tplID := t.ID
	rec := Record{
		DomainID:   d.ID,
		Name:       NormalizeName(fields["name"].(string)),
		Type:       NormalizeType(t.Type),
		Content:    fields["content"].(string),
		TTL:        t.TTL,
		Priority:   t.Priority,
		Auth:       t.Auth,
		Remarks:    t.Remarks,
		OwnerID:    d.OwnerID,
		ServiceID:  d.ServiceID,
		AutoPtr:    t.AutoPtr,
		TemplateID: &tplID,
	}
	return rec
}

// ReversePointer splits an IP address into the PTR host label and its reverse zone.
//
//	ReversePointer("192.168.1.2") -> ("2", "1.168.192.in-addr.arpa")
func ReversePointer(ip string) (host, zone string, err error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", "", invalid("content", "%q is not an IP address", ip)
	}
	full, err := dns.ReverseAddr(addr.Unmap().String())
	if err != nil {
		return "", "", invalid("content", "cannot reverse %q: %v", ip, err)
	}
	full = strings.TrimSuffix(full, ".")
	host, zone, _ = strings.Cut(full, ".")
	return host, zone, nil
}

// ReverseName returns the full PTR name of an IP address.
func ReverseName(ip string) (string, error) {
	host, zone, err := ReversePointer(ip)
	if err != nil {
		return "", err
	}
	return host + "." + zone, nil
}

// IsReverseZone reports whether name is under in-addr.arpa or ip6.arpa.
func IsReverseZone(name string) bool {
	return strings.HasSuffix(name, ".in-addr.arpa") || strings.HasSuffix(name, ".ip6.arpa")
}

// MatchingReverseZones lists the candidate zone names for a reverse zone, most
// specific first, e.g. 30.20.10.in-addr.arpa, 20.10.in-addr.arpa, 10.in-addr.arpa.
func MatchingReverseZones(zone string) []string {
	labels := strings.Split(zone, ".")
	if len(labels) < 3 {
		return []string{zone}
	}
	suffix := strings.Join(labels[len(labels)-2:], ".")
	chunks := labels[:len(labels)-2]
	out := make([]string, 0, len(chunks))
	for i := range chunks {
		out = append(out, strings.Join(chunks[i:], ".")+"."+suffix)
	}
	return out
}
