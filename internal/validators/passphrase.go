package validators

import (
	"context"
	"regexp"
)

// MinPassphraseLength is the hard lower bound on master passphrase length.
// Anything shorter is rejected before strength scoring.
const MinPassphraseLength = 8

// Strength grades a passphrase by length and character-class diversity.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthGood
	StrengthStrong
)

// String returns the human-readable name of the strength level.
func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthFair:
		return "fair"
	case StrengthGood:
		return "good"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PassphraseStrength scores a passphrase. The score is a coarse signal for
// the setup policy and for UI meters; it makes no entropy claim.
//
// Levels:
//   - Weak:   shorter than MinPassphraseLength, or fewer than two
//     character classes.
//   - Fair:   two character classes.
//   - Good:   three or more character classes.
//   - Strong: three or more character classes and at least 12 characters.
func PassphraseStrength(passphrase string) Strength {
	if len(passphrase) < MinPassphraseLength {
		return StrengthWeak
	}

	classes := 0
	for _, re := range []*regexp.Regexp{lowerRe, upperRe, digitRe, specialRe} {
		if re.MatchString(passphrase) {
			classes++
		}
	}

	switch {
	case classes >= 3 && len(passphrase) >= 12:
		return StrengthStrong
	case classes >= 3:
		return StrengthGood
	case classes == 2:
		return StrengthFair
	default:
		return StrengthWeak
	}
}

// PassphraseValidator implements the Validator interface for master
// passphrases. The one-time setup policy accepts Good or better: with no
// rotation path, a weak master passphrase cannot be fixed later.
type PassphraseValidator struct {
	minStrength Strength
}

// NewPassphraseValidator constructs a PassphraseValidator that accepts
// passphrases of at least StrengthGood.
func NewPassphraseValidator() Validator {
	return &PassphraseValidator{minStrength: StrengthGood}
}

// Validate checks the passphrase (a string or *string) against the policy.
// Returns ErrPassphraseTooShort or ErrPassphraseTooSimple on rejection, and
// ErrUnsupportedType for any other input type. Field scoping is not used by
// this validator.
func (v *PassphraseValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	var passphrase string
	switch value := obj.(type) {
	case string:
		passphrase = value
	case *string:
		passphrase = *value
	default:
		return ErrUnsupportedType
	}

	if len(passphrase) < MinPassphraseLength {
		return ErrPassphraseTooShort
	}
	if PassphraseStrength(passphrase) < v.minStrength {
		return ErrPassphraseTooSimple
	}

	return nil
}
