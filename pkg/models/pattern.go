package models

import (
	"fmt"
	"strings"
)

// FlagThreshold is the score at which an account is flagged. It matches the
// registry's on-chain flag rule so findings round-trip unchanged.
const FlagThreshold = 70

// MaxScore is the upper bound of every suspicion score.
const MaxScore = 100

// PatternTag is a laundering pattern detected on an account.
type PatternTag uint8

// Declaration order is detection confidence order and is used for tie-breaks.
const (
	PatternRingMember PatternTag = iota
	PatternFanIn
	PatternFanOut
	PatternPassThrough

	patternCount
)

var patternNames = [patternCount]string{
	PatternRingMember:  "RING_MEMBER",
	PatternFanIn:       "FAN_IN",
	PatternFanOut:      "FAN_OUT",
	PatternPassThrough: "PASS_THROUGH",
}

// AllPatterns lists every tag in confidence order.
func AllPatterns() []PatternTag {
	return []PatternTag{PatternRingMember, PatternFanIn, PatternFanOut, PatternPassThrough}
}

// String returns the wire name of the tag.
func (p PatternTag) String() string {
	if p >= patternCount {
		return fmt.Sprintf("PatternTag(%d)", uint8(p))
	}
	return patternNames[p]
}

// Valid reports whether p is one of the declared tags.
func (p PatternTag) Valid() bool {
	return p < patternCount
}

// MarshalText encodes the tag by name.
func (p PatternTag) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid pattern tag %d", uint8(p))
	}
	return []byte(patternNames[p]), nil
}

// UnmarshalText decodes a tag name.
func (p *PatternTag) UnmarshalText(text []byte) error {
	tag, err := ParsePattern(string(text))
	if err != nil {
		return err
	}
	*p = tag
	return nil
}

// ParsePattern resolves a tag name, case-insensitively.
func ParsePattern(name string) (PatternTag, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, v := range patternNames {
		if v == n {
			return PatternTag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", name)
}

// PatternSet is a set of pattern tags.
type PatternSet uint8

// NewPatternSet builds a set from tags.
func NewPatternSet(tags ...PatternTag) PatternSet {
	var s PatternSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

// With returns the set with tag added.
func (s PatternSet) With(tag PatternTag) PatternSet {
	if !tag.Valid() {
		return s
	}
	return s | 1<<tag
}

// Union returns s ∪ o.
func (s PatternSet) Union(o PatternSet) PatternSet {
	return s | o
}

// Has reports membership.
func (s PatternSet) Has(tag PatternTag) bool {
	return tag.Valid() && s&(1<<tag) != 0
}

// Empty reports whether the set has no tags.
func (s PatternSet) Empty() bool {
	return s == 0
}

// Len returns the number of tags in the set.
func (s PatternSet) Len() int {
	n := 0
	for _, t := range AllPatterns() {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Tags returns the members in confidence order.
func (s PatternSet) Tags() []PatternTag {
	out := make([]PatternTag, 0, patternCount)
	for _, t := range AllPatterns() {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Names returns the member names in confidence order.
func (s PatternSet) Names() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
