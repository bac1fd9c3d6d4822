// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checklist

// Progress counts completed items within a priority rank.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Analysis summarizes the completion state of a checklist.
//
// Compliant means every item is completed; CriticalCompliant means
// every critical item is. Both are vacuously true for an empty
// checklist.
type Analysis struct {
	TotalItems        int                   `json:"total_items"`
	CompletedItems    int                   `json:"completed_items"`
	CompletionPercent float64               `json:"completion_percent"`
	Compliant         bool                  `json:"compliant"`
	CriticalTotal     int                   `json:"critical_total"`
	CriticalCompleted int                   `json:"critical_completed"`
	CriticalCompliant bool                  `json:"critical_compliant"`
	PendingItems      []string              `json:"pending_items"`
	PendingCritical   []string              `json:"pending_critical"`
	ByPriority        map[Priority]Progress `json:"by_priority"`
}

// Analyze computes completion statistics for a checklist.
//
// Pending ID lists preserve checklist order. A nil checklist is treated
// as empty.
func Analyze(c *Checklist) *Analysis {
	a := &Analysis{
		PendingItems:    make([]string, 0),
		PendingCritical: make([]string, 0),
		ByPriority:      make(map[Priority]Progress),
	}
	if c == nil {
		a.Compliant = true
		a.CriticalCompliant = true
		return a
	}

	for i := range c.Items {
		item := &c.Items[i]
		a.TotalItems++

		progress := a.ByPriority[item.Priority]
		progress.Total++

		if item.Completed {
			a.CompletedItems++
			progress.Completed++
		} else {
			a.PendingItems = append(a.PendingItems, item.ID)
		}

		if item.Priority == PriorityCritical {
			a.CriticalTotal++
			if item.Completed {
				a.CriticalCompleted++
			} else {
				a.PendingCritical = append(a.PendingCritical, item.ID)
			}
		}

		a.ByPriority[item.Priority] = progress
	}

	if a.TotalItems > 0 {
		a.CompletionPercent = float64(a.CompletedItems) / float64(a.TotalItems) * 100
	}
	a.Compliant = a.CompletedItems == a.TotalItems
	a.CriticalCompliant = a.CriticalCompleted == a.CriticalTotal

	return a
}
