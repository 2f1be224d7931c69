// Package vote defines categorical reviewer votes and their aggregation.
package vote

import "strings"

// Value is a reviewer's categorical judgment for one specification item.
type Value int

const (
	// ValueUnset indicates the reviewer has not voted on the item.
	ValueUnset Value = iota
	// ValueCompliant indicates the submission meets the specification.
	ValueCompliant
	// ValueNonCompliant indicates the submission fails the specification.
	ValueNonCompliant
	// ValueNotApplicable indicates the specification does not apply.
	ValueNotApplicable
)

// Vote is one reviewer's judgment on one specification item.
type Vote struct {
	ReviewerID string
	Value      Value
	Comment    string
}

// Aggregation summarizes all reviewer votes for one specification item.
type Aggregation struct {
	// Consensus is the majority value, or ValueUnset when no votes were cast.
	Consensus Value
	// HasDisagreement reports whether reviewers split across categories.
	HasDisagreement bool
	Compliant       int
	NonCompliant    int
	NotApplicable   int
}

// TotalVotes returns the number of counted (non-unset) votes.
func (a Aggregation) TotalVotes() int {
	return a.Compliant + a.NonCompliant + a.NotApplicable
}

// Aggregate computes the consensus for one specification item from all
// reviewer votes. Unset votes are ignored.
//
// Ties break conservatively: NonCompliant beats Compliant beats
// NotApplicable, so a split vote always surfaces the potential issue.
// The function is pure; the same vote multiset always yields the same result.
func Aggregate(votes []Vote) Aggregation {
	var agg Aggregation
	for _, v := range votes {
		switch v.Value {
		case ValueCompliant:
			agg.Compliant++
		case ValueNonCompliant:
			agg.NonCompliant++
		case ValueNotApplicable:
			agg.NotApplicable++
		}
	}

	distinct := 0
	for _, count := range []int{agg.Compliant, agg.NonCompliant, agg.NotApplicable} {
		if count > 0 {
			distinct++
		}
	}
	agg.HasDisagreement = distinct > 1

	if agg.TotalVotes() == 0 {
		agg.Consensus = ValueUnset
		return agg
	}

	// Evaluation order encodes the tie-break priority.
	agg.Consensus = ValueNonCompliant
	best := agg.NonCompliant
	if agg.Compliant > best {
		agg.Consensus = ValueCompliant
		best = agg.Compliant
	}
	if agg.NotApplicable > best {
		agg.Consensus = ValueNotApplicable
	}
	return agg
}

// IsCounted reports whether a value participates in aggregation.
func IsCounted(value Value) bool {
	return value == ValueCompliant || value == ValueNonCompliant || value == ValueNotApplicable
}

// Label returns the canonical label for a vote value.
func Label(value Value) string {
	switch value {
	case ValueCompliant:
		return "compliant"
	case ValueNonCompliant:
		return "non_compliant"
	case ValueNotApplicable:
		return "not_applicable"
	default:
		return "unset"
	}
}

// FromLabel parses a canonical vote value label.
func FromLabel(label string) Value {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "compliant":
		return ValueCompliant
	case "non_compliant":
		return ValueNonCompliant
	case "not_applicable":
		return ValueNotApplicable
	default:
		return ValueUnset
	}
}
