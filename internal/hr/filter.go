package hr

import "slices"

// Filter selects register views. Zero fields match everything.
type Filter struct {
	// From and To bound the start date, inclusive, as YYYY-MM-DD.
	From string
	To   string

	// Statuses matches the derived status, never the stored one.
	Statuses []Status

	ResponsibleParty string
	Severity         string
	Nature           string

	// WorkPhases matches records affecting at least one of the phases.
	WorkPhases []string
}

// Match reports whether v passes every set criterion.
func (f *Filter) Match(v *HindranceView) bool {
	h := v.Record
	if f.From != "" || f.To != "" {
		start, ok := ParseDate(h.StartDate)
		if !ok {
			return false
		}
		if from, ok := ParseDate(f.From); ok && start.Before(from) {
			return false
		}
		if to, ok := ParseDate(f.To); ok && start.After(to) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, v.EffectiveStatus) {
		return false
	}
	if f.ResponsibleParty != "" && h.Text(FieldResponsibleParty) != f.ResponsibleParty {
		return false
	}
	if f.Severity != "" && h.Text(FieldSeverity) != f.Severity {
		return false
	}
	if f.Nature != "" && h.Text(FieldNature) != f.Nature {
		return false
	}
	if len(f.WorkPhases) > 0 && !slices.ContainsFunc(f.WorkPhases, func(p string) bool {
		return slices.Contains(h.WorkPhases(), p)
	}) {
		return false
	}
	return true
}

// FilterViews returns the views matching f, keeping their order. A nil f matches all.
func FilterViews(views []*HindranceView, f *Filter) []*HindranceView {
	if f == nil {
		return views
	}
	out := make([]*HindranceView, 0, len(views))
	for _, v := range views {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}
