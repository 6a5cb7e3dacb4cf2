package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/domevents/internal/trace"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortBySeq     SortOrder = "seq"
	SortByHandler SortOrder = "handler"
	SortByElement SortOrder = "element"
)

// ParseSortOrder validates a --sort value.
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case "":
		return SortBySeq, nil
	case SortBySeq, SortByHandler, SortByElement:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'seq', 'handler' or 'element')", s)
	}
}

// sortRecords sorts invocation records based on the specified sort order.
// Ties always fall back to invocation order.
func sortRecords(records []*trace.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortByHandler:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Handler != records[j].Handler {
				return strings.ToLower(records[i].Handler) < strings.ToLower(records[j].Handler)
			}
			return records[i].Seq < records[j].Seq
		})
	case SortByElement:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].This != records[j].This {
				return records[i].This < records[j].This
			}
			return records[i].Seq < records[j].Seq
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Seq < records[j].Seq
		})
	}
}
