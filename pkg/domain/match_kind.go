package domain

import dErrors "github.com/youssefloay/comebac-sub002/pkg/domain-errors"

// MatchKind discriminates the two match namespaces that share admission rules.
// Regular season and preseason fixtures carry independent ID spaces, so a
// MatchID is only meaningful alongside its kind. The admission logic itself is
// kind-agnostic; the kind only participates in record identity.
type MatchKind string

const (
	MatchKindRegular   MatchKind = "regular"
	MatchKindPreseason MatchKind = "preseason"
)

func (k MatchKind) IsValid() bool {
	return k == MatchKindRegular || k == MatchKindPreseason
}

func (k MatchKind) String() string { return string(k) }

// ParseMatchKind validates a raw kind string at the API boundary.
func ParseMatchKind(raw string) (MatchKind, error) {
	kind := MatchKind(raw)
	if !kind.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "match_kind must be regular or preseason")
	}
	return kind, nil
}

// MatchRef names one match across both namespaces. It is the grouping key for
// capacity accounting and duplicate identity checks.
type MatchRef struct {
	ID   MatchID
	Kind MatchKind
}

// ParseMatchRef builds a MatchRef from raw query or body values.
func ParseMatchRef(rawID, rawKind string) (MatchRef, error) {
	matchID, err := ParseMatchID(rawID)
	if err != nil {
		return MatchRef{}, err
	}
	kind, err := ParseMatchKind(rawKind)
	if err != nil {
		return MatchRef{}, err
	}
	return MatchRef{ID: matchID, Kind: kind}, nil
}
