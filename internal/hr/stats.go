package hr

import (
	"math"
	"time"
)

// Stats aggregates the register for the dashboard. Every figure is computed from the
// derived status at a single instant.
type Stats struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Resolved        int `json:"resolved"`
	Overdue         int `json:"overdue"`
	PendingApproval int `json:"pendingApproval"`

	// AvgResolutionDays is the rounded mean of start-to-removal days over removed records.
	AvgResolutionDays int `json:"avgResolutionDays"`
	// OldestPendingDays is the largest age among Active and Overdue records.
	OldestPendingDays int `json:"oldestPendingDays"`
	// MostCommonNature is empty when the register is empty.
	MostCommonNature string `json:"mostCommonNature"`
	// SuccessRate is the rounded percentage of removed records resolved within the SLA.
	SuccessRate    int `json:"successRate"`
	TotalDelayDays int `json:"totalDelayDays"`

	ByResponsibleParty map[string]int `json:"byResponsibleParty"`
	ByWorkPhase        map[string]int `json:"byWorkPhase"`
	BySeverity         map[string]int `json:"bySeverity"`
}

const unknownLabel = "Unknown"

// ComputeStats aggregates hs as seen at now with the given SLA threshold.
func ComputeStats(hs []*Hindrance, slaThresholdDays int, now time.Time) *Stats {
	st := &Stats{
		Total:              len(hs),
		ByResponsibleParty: map[string]int{},
		ByWorkPhase:        map[string]int{},
		BySeverity:         map[string]int{},
	}

	natureCounts := map[string]int{}
	var natureOrder []string
	resolvedCount, resolvedDays, onTime := 0, 0, 0

	for _, h := range hs {
		switch DeriveStatus(h, slaThresholdDays, now) {
		case StatusActive:
			st.Active++
			st.OldestPendingDays = max(st.OldestPendingDays, DaysSince(h.StartDate, now))
		case StatusOverdue:
			st.Overdue++
			st.OldestPendingDays = max(st.OldestPendingDays, DaysSince(h.StartDate, now))
		case StatusResolved:
			st.Resolved++
		case StatusPendingApproval:
			st.PendingApproval++
		}

		removed := h.IsRemoved() && h.StartDate != ""
		if removed {
			days := DaysBetween(h.StartDate, *h.RemovalDate)
			resolvedCount++
			resolvedDays += days
			if days <= slaThresholdDays {
				onTime++
			}
			st.TotalDelayDays += days
		} else if h.StartDate != "" && !h.IsRemoved() {
			st.TotalDelayDays += DaysSince(h.StartDate, now)
		}

		nature := labelOrUnknown(h.Text(FieldNature))
		if _, seen := natureCounts[nature]; !seen {
			natureOrder = append(natureOrder, nature)
		}
		natureCounts[nature]++

		st.ByResponsibleParty[labelOrUnknown(h.Text(FieldResponsibleParty))]++
		st.BySeverity[labelOrUnknown(h.Text(FieldSeverity))]++
		for _, phase := range h.WorkPhases() {
			st.ByWorkPhase[phase]++
		}
	}

	if resolvedCount > 0 {
		st.AvgResolutionDays = int(math.Round(float64(resolvedDays) / float64(resolvedCount)))
		st.SuccessRate = int(math.Round(float64(onTime) / float64(resolvedCount) * 100))
	}

	// ties go to the nature seen first
	for _, nature := range natureOrder {
		if st.MostCommonNature == "" || natureCounts[nature] > natureCounts[st.MostCommonNature] {
			st.MostCommonNature = nature
		}
	}
	return st
}

func labelOrUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}
