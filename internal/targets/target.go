package targets

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Target is a monitored destination.
type Target struct {
	Address string `json:"address" validate:"required,max=2048,hostname_rfc1123|ip|http_url"`
	Label   string `json:"label,omitempty" validate:"max=128"`
}

// Key returns the case-normalized identity of the target.
func (t Target) Key() string {
	return NormalizeAddress(t.Address)
}

// DisplayName returns the label, or the address when no label is set.
func (t Target) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Address
}

// IsHTTP reports whether the target is probed with an HTTP request instead of ICMP.
func (t Target) IsHTTP() bool {
	key := t.Key()
	return strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://")
}

// NormalizeAddress trims and lower-cases an address for identity comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// UnmarshalJSON accepts both the object form and a bare address string, which
// is how older sites.json files listed their targets.
func (t *Target) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var address string
		if err := json.Unmarshal(trimmed, &address); err != nil {
			return err
		}
		*t = Target{Address: address}
		return nil
	}

	type record Target
	var r record
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return err
	}
	*t = Target(r)
	return nil
}
