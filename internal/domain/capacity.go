package domain

// Admits reports whether a game with the given capacity can take one more
// participant. A non-positive capacity admits nobody.
func Admits(current, players int) bool {
	return current < players
}
