package algebra

import "fmt"

// WordUnit is the distance unit counting token positions.
const WordUnit = "w"

// DistanceConstraint bounds the gap between consecutive sequence operands.
//
// For the word unit the distance of two occurrences a and b (a first) is
// b.start - a.end + 1, so directly adjacent occurrences are 1 apart. For an
// element unit it is the number of unit elements between the element holding
// a and the element holding b, so two occurrences in the same element are 0
// apart.
type DistanceConstraint struct {
	Min, Max  int
	Unit      string
	InOrder   bool
	Exclusion bool
}

// IsWordUnit reports whether the constraint counts token positions.
func (c DistanceConstraint) IsWordUnit() bool {
	return c.Unit == "" || c.Unit == WordUnit
}

// IsTrivial reports whether the constraint only demands direct, ordered
// adjacency, which a plain concatenation expresses.
func (c DistanceConstraint) IsTrivial() bool {
	return c.IsWordUnit() && c.Min == 1 && c.Max == 1 && c.InOrder && !c.Exclusion
}

// Admits reports whether a distance lies within the bounds.
func (c DistanceConstraint) Admits(d int) bool {
	return d >= c.Min && d <= c.Max
}

func (c DistanceConstraint) String() string {
	unit := c.Unit
	if unit == "" {
		unit = WordUnit
	}
	order := "ordered"
	if !c.InOrder {
		order = "notOrdered"
	}
	excl := "notExcluded"
	if c.Exclusion {
		excl = "excluded"
	}
	return fmt.Sprintf("[(%s[%d:%d], %s, %s)]", unit, c.Min, c.Max, order, excl)
}
