package hr

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Keys of the untyped record fields the register reads for filters, stats and export.
const (
	FieldNature              = "nature"
	FieldNatureOther         = "natureOther"
	FieldWorkAffected        = "workAffected"
	FieldResponsibleParty    = "responsibleParty"
	FieldSeverity            = "severity"
	FieldDaysNotAttributable = "daysNotAttributable"
	FieldRemarks             = "remarks"
)

// Raw returns the stored JSON for key, or nil when the record has no such field.
func (h *Hindrance) Raw(key string) json.RawMessage {
	return h.Extra[key]
}

// Text returns key as display text. Strings are unquoted, numbers and booleans are
// returned as written, and anything else (objects, arrays, null, absent) is empty.
func (h *Hindrance) Text(key string) string {
	raw := bytes.TrimSpace(h.Extra[key])
	if isNullJSON(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch raw[0] {
	case '{', '[':
		return ""
	}
	return string(raw)
}

// Number returns key as a number. Numeric strings are accepted; any other value is 0.
func (h *Hindrance) Number(key string) float64 {
	raw := h.Extra[key]
	if isNullJSON(raw) {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return 0
}

// WorkPhases returns the affected work phases. Older data stores a single phase as a
// plain string; non-string list elements are skipped.
func (h *Hindrance) WorkPhases() []string {
	raw := h.Extra[FieldWorkAffected]
	if isNullJSON(raw) {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var p string
		if json.Unmarshal(item, &p) == nil && p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NatureLabel is the nature for display, with the free text of "Other" appended.
func (h *Hindrance) NatureLabel() string {
	nature := h.Text(FieldNature)
	if other := h.Text(FieldNatureOther); nature == "Other" && other != "" {
		return "Other: " + other
	}
	return nature
}
