package models

// Color is a player's cosmetic tint, components in [0,1].
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// DefaultColor is the neutral tint used when no profile matches.
var DefaultColor = Color{R: 1, G: 1, B: 1}

// UserProfile is a persisted cosmetic preference keyed by login token.
type UserProfile struct {
	Color      Color  `json:"color"`
	LoginToken string `json:"loginToken"`
}
