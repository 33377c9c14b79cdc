package bid

import (
	"fmt"
	"sort"
)

// SortKey selects the ordering applied to a bid list before presentation.
type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortRatingDesc SortKey = "rating_desc"
	SortETAAsc     SortKey = "eta_asc"
)

// ParseSortKey converts a string to a SortKey; empty defaults to price
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortPriceAsc, SortRatingDesc, SortETAAsc:
		return SortKey(s), nil
	case "":
		return SortPriceAsc, nil
	default:
		return "", fmt.Errorf("unknown bid sort key: %q", s)
	}
}

// Sort orders bids in place by the given key. Ties break by earliest
// submission so the ordering is stable across refreshes.
func Sort(bids []*Bid, key SortKey) {
	sort.SliceStable(bids, func(i, j int) bool {
		a, b := bids[i], bids[j]
		switch key {
		case SortRatingDesc:
			if a.DriverRating != b.DriverRating {
				return a.DriverRating > b.DriverRating
			}
		case SortETAAsc:
			if a.ETAMinutes != b.ETAMinutes {
				return a.ETAMinutes < b.ETAMinutes
			}
		default:
			if cmp := a.Amount.Compare(b.Amount); cmp != 0 {
				return cmp < 0
			}
		}
		return a.SubmittedAt.Before(b.SubmittedAt)
	})
}
