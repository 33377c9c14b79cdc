package ride

import "fmt"

// Status represents the ride lifecycle state
type Status int

const (
	StatusRequesting Status = iota
	StatusPending
	StatusBidding
	StatusMatched
	StatusActive
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRequesting:
		return "requesting"
	case StatusPending:
		return "pending"
	case StatusBidding:
		return "bidding"
	case StatusMatched:
		return "matched"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus converts a string to a Status
func ParseStatus(s string) (Status, error) {
	switch s {
	case "requesting":
		return StatusRequesting, nil
	case "pending":
		return StatusPending, nil
	case "bidding":
		return StatusBidding, nil
	case "matched":
		return StatusMatched, nil
	case "active":
		return StatusActive, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return StatusRequesting, fmt.Errorf("unknown ride status: %q", s)
	}
}

// transitions is the single source of truth for legal lifecycle moves.
var transitions = map[Status][]Status{
	StatusRequesting: {StatusPending},
	StatusPending:    {StatusBidding, StatusCancelled},
	StatusBidding:    {StatusMatched, StatusCancelled},
	StatusMatched:    {StatusActive, StatusCancelled},
	StatusActive:     {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the move from s to target is legal
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
