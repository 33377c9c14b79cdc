package values

import "fmt"

// Category is the ride service category requested by a rider.
type Category string

const (
	CategoryStandard    Category = "standard"
	CategoryPremium     Category = "premium"
	CategoryWheelchair  Category = "wheelchair_accessible"
	CategoryPetFriendly Category = "pet_friendly"
)

// ParseCategory converts a string to a Category; empty defaults to standard
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryStandard, CategoryPremium, CategoryWheelchair, CategoryPetFriendly:
		return Category(s), nil
	case "":
		return CategoryStandard, nil
	default:
		return "", fmt.Errorf("unknown ride category: %q", s)
	}
}

func (c Category) String() string {
	return string(c)
}
