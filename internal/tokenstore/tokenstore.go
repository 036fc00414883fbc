// Package tokenstore persists access/refresh token pairs in two lifetime tiers.
package tokenstore

import "fmt"

// Tier selects where a pair lives and how long it survives.
type Tier int

const (
	// Ephemeral pairs are wiped when the OS session ends.
	Ephemeral Tier = iota
	// Remembered pairs survive restarts.
	Remembered
)

// Tiers lists every tier in read-precedence order.
var Tiers = []Tier{Ephemeral, Remembered}

func (t Tier) String() string {
	switch t {
	case Ephemeral:
		return "ephemeral"
	case Remembered:
		return "remembered"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Pair is one access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"authToken"`
	RefreshToken string `json:"refreshToken"`
	RememberMe   bool   `json:"rememberMe,omitempty"`
}

// Valid reports whether both tokens are present.
func (p Pair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Store is pure key/value persistence of one pair per tier.
// Write must be atomic: a reader never observes a half-written pair.
type Store interface {
	Write(tier Tier, pair Pair) error
	Read(tier Tier) (Pair, bool, error)
	Clear(tier Tier) error
	ClearAll() error
}

// ReadFirst returns the first populated tier in precedence order.
func ReadFirst(s Store) (Pair, Tier, bool, error) {
	for _, tier := range Tiers {
		p, ok, err := s.Read(tier)
		if err != nil {
			return Pair{}, tier, false, err
		}
		if ok {
			return p, tier, true, nil
		}
	}
	return Pair{}, Ephemeral, false, nil
}
