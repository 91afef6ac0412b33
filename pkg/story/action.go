package story

// Action identifies the handler bound to a location in the data file.
type Action string

const (
	FindBook       Action = "findBook"
	SolvePuzzle    Action = "solvePuzzle"
	NegotiateGuard Action = "negotiateGuard"
	SearchTreasure Action = "searchTreasure"
	ExploreSecret  Action = "exploreSecret"
	DivingWell     Action = "divingWell"
)

// Actions lists every known action.
var Actions = []Action{FindBook, SolvePuzzle, NegotiateGuard, SearchTreasure, ExploreSecret, DivingWell}

// ParseAction maps a data-file identifier to a known action.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}
