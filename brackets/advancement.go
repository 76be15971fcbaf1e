package brackets

import "github.com/Dosada05/tournament-brackets/models"

// IndexDependents maps a match ID to the matches whose slots it feeds.
func IndexDependents(matches []*models.Match) map[int][]*models.Match {
	index := make(map[int][]*models.Match)
	for _, m := range matches {
		if m.Source1 != nil {
			index[m.Source1.MatchID] = append(index[m.Source1.MatchID], m)
		}
		if m.Source2 != nil && (m.Source1 == nil || m.Source2.MatchID != m.Source1.MatchID) {
			index[m.Source2.MatchID] = append(index[m.Source2.MatchID], m)
		}
	}
	return index
}

// Propagate fills every slot of dependent that is sourced from source with the source's
// winner or loser, as the slot's edge says. It returns the slots (1 or 2) whose player
// changed, so callers can persist those slots alone.
func Propagate(source, dependent *models.Match) []int {
	var changed []int
	if ref := dependent.Source1; ref != nil && ref.MatchID == source.ID {
		next := advancingPlayer(source, ref.Edge)
		if !sameID(dependent.Player1ID, next) {
			changed = append(changed, 1)
		}
		dependent.Player1ID = next
	}
	if ref := dependent.Source2; ref != nil && ref.MatchID == source.ID {
		next := advancingPlayer(source, ref.Edge)
		if !sameID(dependent.Player2ID, next) {
			changed = append(changed, 2)
		}
		dependent.Player2ID = next
	}
	return changed
}

func advancingPlayer(source *models.Match, edge models.EdgeType) *int {
	id := source.WinnerID
	if edge == models.EdgeLoserAdvances {
		id = source.LoserID
	}
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
