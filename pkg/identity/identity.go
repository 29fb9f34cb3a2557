// Package identity canonicalizes spectator contact details into comparable
// keys. The same real person is recognized across attendance requests only
// through these keys, so normalization is deliberately strict: an input that
// matches no accepted shape is rejected rather than guessed at.
package identity

import (
	"strings"

	dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"
)

// Kind classifies a normalized identity.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// countryCode is the league's national dialing code. Phone numbers submitted
// with an international prefix are folded back into the national format.
const countryCode = "20"

// subscriberDigits is the length of a subscriber number without the leading 0.
const subscriberDigits = 10

// Identity is a canonical contact key. Two requests refer to the same person
// exactly when their Keys are equal; there is no fuzzy matching.
type Identity struct {
	Kind Kind
	Key  string
}

// Normalize classifies raw as email or phone and produces its canonical key.
// Classification is by presence of '@'.
func Normalize(raw string) (Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidIdentity, "identity is required")
	}
	if strings.ContainsRune(trimmed, '@') {
		return normalizeEmail(trimmed)
	}
	return normalizePhone(trimmed)
}

// NormalizeEmail canonicalizes an email address: trim and lower-case.
func NormalizeEmail(raw string) (Identity, error) {
	return normalizeEmail(strings.TrimSpace(raw))
}

// NormalizePhone canonicalizes a phone number to the national 0XXXXXXXXXX form.
func NormalizePhone(raw string) (Identity, error) {
	return normalizePhone(strings.TrimSpace(raw))
}

func normalizeEmail(trimmed string) (Identity, error) {
	key := strings.ToLower(trimmed)
	at := strings.IndexByte(key, '@')
	if at <= 0 || at == len(key)-1 || strings.Count(key, "@") != 1 {
		return Identity{}, dErrors.New(dErrors.CodeInvalidIdentity, "malformed email address")
	}
	if !strings.Contains(key[at+1:], ".") {
		return Identity{}, dErrors.New(dErrors.CodeInvalidIdentity, "email domain is incomplete")
	}
	return Identity{Kind: KindEmail, Key: key}, nil
}

// normalizePhone accepts exactly four shapes and folds them all into the
// national format:
//
//	0XXXXXXXXXX         national (canonical)
//	+20XXXXXXXXXX       country-code prefixed
//	0020XXXXXXXXXX      international dialing prefix
//	XXXXXXXXXX          bare subscriber number
func normalizePhone(trimmed string) (Identity, error) {
	digits, err := stripPhoneNoise(trimmed)
	if err != nil {
		return Identity{}, err
	}

	switch {
	case strings.HasPrefix(digits, "+"+countryCode):
		digits = digits[len(countryCode)+1:]
	case strings.HasPrefix(digits, "00"+countryCode):
		digits = digits[len(countryCode)+2:]
	case strings.HasPrefix(digits, "+"), strings.HasPrefix(digits, "00"):
		return Identity{}, dErrors.New(dErrors.CodeInvalidIdentity, "unsupported country code")
	case strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	if len(digits) != subscriberDigits || !allDigits(digits) {
		return Identity{}, dErrors.New(dErrors.CodeInvalidIdentity, "unrecognized phone number format")
	}
	return Identity{Kind: KindPhone, Key: "0" + digits}, nil
}

// stripPhoneNoise removes spacing and punctuation while preserving a single
// leading '+'. Any other non-digit character invalidates the input.
func stripPhoneNoise(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separator noise, drop
		default:
			return "", dErrors.New(dErrors.CodeInvalidIdentity, "phone number contains invalid characters")
		}
	}
	if b.Len() == 0 {
		return "", dErrors.New(dErrors.CodeInvalidIdentity, "phone number is empty")
	}
	return b.String(), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
