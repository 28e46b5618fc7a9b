// Package dice parses dice notation and rolls dice.
package dice

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNotation indicates no substring of the input is dice notation.
var ErrInvalidNotation = errors.New("invalid dice notation")

// Alternation order matters: df/dF must be tried before d.
var notationRe = regexp.MustCompile(`(\d+)(df|dF|d)(\d+)?([+-]\d+)?`)

// Kind selects the roll algorithm for a Spec.
type Kind int

const (
	// KindUnknown is never produced by Parse; rolling it yields no dice.
	KindUnknown Kind = iota
	KindStandard
	KindFudge
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "Standard"
	case KindFudge:
		return "Fudge"
	default:
		return "Unknown"
	}
}

// Token returns the notation type token for the kind.
func (k Kind) Token() string {
	switch k {
	case KindStandard:
		return "d"
	case KindFudge:
		return "df"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Token()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized tokens
// decode to KindUnknown so a damaged state slot degrades to an empty roll.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = kindFromToken(string(text))
	return nil
}

// kindFromToken mirrors the executor branch: fudge is matched
// case-insensitively, standard only as a lowercase d.
func kindFromToken(token string) Kind {
	switch {
	case strings.ToLower(token) == "df":
		return KindFudge
	case token == "d":
		return KindStandard
	default:
		return KindUnknown
	}
}

// Spec is a parsed roll specification.
type Spec struct {
	Raw      string `json:"raw"`
	Count    int    `json:"nDice"`
	Kind     Kind   `json:"type"`
	Faces    int    `json:"faces"`
	Modifier int    `json:"modifier"`
}

// DefaultSpec is the specification in force before any user input.
func DefaultSpec() Spec {
	return Spec{
		Raw:   "1d6",
		Count: 1,
		Kind:  KindStandard,
		Faces: 6,
	}
}

// Parse finds the first dice notation substring in text. The match need not
// cover the whole input: "roll 3d8+2 please" yields Raw "3d8+2".
func Parse(text string) (Spec, error) {
	m := notationRe.FindStringSubmatch(text)
	if m == nil {
		return Spec{}, ErrInvalidNotation
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Spec{}, ErrInvalidNotation
	}
	spec := Spec{
		Raw:   m[0],
		Count: count,
		Kind:  kindFromToken(m[2]),
	}
	if m[3] != "" {
		if spec.Faces, err = strconv.Atoi(m[3]); err != nil {
			return Spec{}, ErrInvalidNotation
		}
	}
	if m[4] != "" {
		if spec.Modifier, err = strconv.Atoi(m[4]); err != nil {
			return Spec{}, ErrInvalidNotation
		}
	}
	return spec, nil
}
