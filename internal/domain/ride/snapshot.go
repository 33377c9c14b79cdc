package ride

import (
	"time"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
)

// Snapshot is an immutable view of a ride and its bid ledger, published to
// subscribers after every committed change.
type Snapshot struct {
	Request     *Request   `json:"request"`
	Bids        []*bid.Bid `json:"bids"`
	CommittedAt time.Time  `json:"committed_at"`
}

// NewSnapshot deep-copies the ride and bids so later mutations cannot leak
// into already-published views.
func NewSnapshot(r *Request, bids []*bid.Bid) *Snapshot {
	copied := make([]*bid.Bid, len(bids))
	for i, b := range bids {
		copied[i] = b.Clone()
	}
	return &Snapshot{
		Request:     r.Clone(),
		Bids:        copied,
		CommittedAt: time.Now(),
	}
}
