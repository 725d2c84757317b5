// Package query is the in-memory search/filter/sort pipeline behind the
// "all batches" view. It operates on a snapshot and never mutates it.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
)

// StatusFilter narrows batches by overall progress.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusInProgress StatusFilter = "in-progress"
	StatusCompleted  StatusFilter = "completed"
	StatusOverdue    StatusFilter = "overdue"
)

func (f StatusFilter) IsValid() bool {
	switch f {
	case StatusAll, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

func ParseStatusFilterFromString(s string) (StatusFilter, error) {
	normalized := StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return StatusAll, nil
	}
	if !normalized.IsValid() {
		return "", fmt.Errorf("%w: invalid status filter %q", domain.ErrValidation, s)
	}
	return normalized, nil
}

// SortBy selects the list ordering.
type SortBy string

const (
	SortCreatedNewest   SortBy = "created-newest"
	SortBottlingSoonest SortBy = "bottling-soonest"
	SortCustomerAZ      SortBy = "customer-az"
	SortBOPNewest       SortBy = "bop-newest"
)

func (s SortBy) IsValid() bool {
	switch s {
	case SortCreatedNewest, SortBottlingSoonest, SortCustomerAZ, SortBOPNewest:
		return true
	}
	return false
}

func ParseSortByFromString(s string) (SortBy, error) {
	normalized := SortBy(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return SortCreatedNewest, nil
	}
	if !normalized.IsValid() {
		return "", fmt.Errorf("%w: invalid sort %q", domain.ErrValidation, s)
	}
	return normalized, nil
}

// Params narrows and orders a batch listing. The zero value passes
// everything through in default (creation-newest) order.
type Params struct {
	// Search matches case-insensitively against customer name, wine
	// kit name, or the BOP number's decimal form; any hit qualifies.
	Search string
	// KitWeeks filters to one kit duration when non-nil.
	KitWeeks *domain.KitDuration
	Status   StatusFilter
	SortBy   SortBy
}

// Apply filters then sorts a copy of batches. "today" drives the overdue
// status filter and is injected by the caller.
func Apply(cal *schedule.Calendar, batches []domain.Batch, params Params, today time.Time) []domain.Batch {
	status := params.Status
	if status == "" {
		status = StatusAll
	}
	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = SortCreatedNewest
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))

	out := make([]domain.Batch, 0, len(batches))
	for i := range batches {
		b := batches[i]
		if search != "" && !matchesSearch(&b, search) {
			continue
		}
		if params.KitWeeks != nil && b.KitDurationWeeks != *params.KitWeeks {
			continue
		}
		if !matchesStatus(cal, &b, status, today) {
			continue
		}
		out = append(out, b)
	}

	sortBatches(out, sortBy)
	return out
}

func matchesSearch(b *domain.Batch, search string) bool {
	if strings.Contains(strings.ToLower(b.CustomerName), search) {
		return true
	}
	if strings.Contains(strings.ToLower(b.WineKitName), search) {
		return true
	}
	return strings.Contains(strconv.FormatInt(b.BOPNumber, 10), search)
}

func matchesStatus(cal *schedule.Calendar, b *domain.Batch, status StatusFilter, today time.Time) bool {
	switch status {
	case StatusInProgress:
		return b.Status() == domain.BatchStatusPending
	case StatusCompleted:
		return b.Status() == domain.BatchStatusDone
	case StatusOverdue:
		return b.Status() == domain.BatchStatusPending && hasDateBefore(cal, b, today)
	default:
		return true
	}
}

func hasDateBefore(cal *schedule.Calendar, b *domain.Batch, today time.Time) bool {
	for _, stage := range domain.Stages() {
		if d := b.StageDate(stage); d != nil && cal.BeforeDay(*d, today) {
			return true
		}
	}
	return false
}

func sortBatches(batches []domain.Batch, sortBy SortBy) {
	switch sortBy {
	case SortBottlingSoonest:
		sort.SliceStable(batches, func(i, j int) bool {
			// Batches without a bottle date sink to the end.
			a, b := batches[i].BottleDate, batches[j].BottleDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	case SortCustomerAZ:
		sort.SliceStable(batches, func(i, j int) bool {
			return strings.ToLower(batches[i].CustomerName) < strings.ToLower(batches[j].CustomerName)
		})
	case SortBOPNewest:
		sort.SliceStable(batches, func(i, j int) bool {
			return batches[i].BOPNumber > batches[j].BOPNumber
		})
	default:
		sort.SliceStable(batches, func(i, j int) bool {
			return batches[i].CreatedAt.After(batches[j].CreatedAt)
		})
	}
}
