package domain

type Milestone string

const (
	MilestoneHalfFull Milestone = "half_full"
	MilestoneFull     Milestone = "full"
)

// HalfTarget is the participant count at which a game counts as half full.
func HalfTarget(players int) int {
	if players <= 0 {
		return 1
	}
	return max(1, (players+1)/2)
}

// MilestonesAt lists the thresholds hit exactly at count for a game of the
// given capacity. With two players the half-full mark is reached at one and
// the full mark at two, so a single count never yields both.
func MilestonesAt(count, players int) []Milestone {
	var reached []Milestone
	if players > 1 && count == HalfTarget(players) {
		reached = append(reached, MilestoneHalfFull)
	}
	if players > 0 && count == players {
		reached = append(reached, MilestoneFull)
	}
	return reached
}
