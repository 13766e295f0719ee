package models

// CardType is an opaque card face. The server never evaluates hands.
type CardType int

const (
	CardCloud CardType = iota
	CardMushroom
	CardFireflower
	CardLuigi
	CardMario
	CardStar

	// CardTypeCount is the number of distinct faces.
	CardTypeCount = 6
)

// HandSize is the number of cards drawn per hand.
const HandSize = 5
