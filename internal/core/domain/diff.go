package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// RequestTypeKey is the reserved key that tags a serialized Change.
const RequestTypeKey = "_request_type"

// HistoryDump is a flat field-name to value snapshot of an entity.
type HistoryDump map[string]any

// Empty returns a dump with the same keys and every value blanked.
func (d HistoryDump) Empty() HistoryDump {
	out := make(HistoryDump, len(d))
	for k := range d {
		out[k] = ""
	}
	return out
}

// FieldChange is the before/after pair of one field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Change is the diff journaled on a request when it becomes terminal.
// It serializes as a flat object: {"name": {"old": .., "new": ..}, "_request_type": "create"}.
type Change struct {
	RequestType Action
	Fields      map[string]FieldChange
}

// FlatDiff pairs every key present in both dumps.
func FlatDiff(oldDump, newDump HistoryDump) map[string]FieldChange {
	out := make(map[string]FieldChange)
	for k, oldVal := range oldDump {
		newVal, ok := newDump[k]
		if !ok {
			continue
		}
		out[k] = FieldChange{Old: oldVal, New: newVal}
	}
	return out
}

// NewChange builds a tagged Change from two dumps.
func NewChange(action Action, oldDump, newDump HistoryDump) *Change {
	return &Change{RequestType: action, Fields: FlatDiff(oldDump, newDump)}
}

// Keys returns the changed field names in sorted order.
func (c *Change) Keys() []string {
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Change) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(c.Fields)+1)
	for k, v := range c.Fields {
		flat[k] = v
	}
	flat[RequestTypeKey] = string(c.RequestType)
	return json.Marshal(flat)
}

func (c *Change) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	c.Fields = make(map[string]FieldChange, len(flat))
	for k, raw := range flat {
		if k == RequestTypeKey {
			var rt string
			if err := json.Unmarshal(raw, &rt); err != nil {
				return fmt.Errorf("invalid %s: %w", RequestTypeKey, err)
			}
			c.RequestType = Action(rt)
			continue
		}
		var fc FieldChange
		if err := json.Unmarshal(raw, &fc); err != nil {
			return fmt.Errorf("invalid change for field %q: %w", k, err)
		}
		c.Fields[k] = fc
	}
	return nil
}
