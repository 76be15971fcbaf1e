package brackets

import (
	"strings"

	"github.com/Dosada05/tournament-brackets/models"
)

// makePlayers returns players with IDs 1..n.
func makePlayers(n int) []*models.Player {
	players := make([]*models.Player, n)
	for i := range players {
		players[i] = &models.Player{ID: i + 1, Name: string(rune('A' + i%26)), Innings: 7, Position: i + 1}
	}
	return players
}

func intp(v int) *int {
	return &v
}

// noShuffle keeps the input order.
type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

// legacyEdgeForStage is the stage name rule older brackets used to pick the advancing
// side: "Tie" or "Losers Round" takes the loser into slot 1, "Tie" or "Losers" takes the
// loser into slot 2, and the winner advances everywhere else.
func legacyEdgeForStage(stageName string, slot int) models.EdgeType {
	switch slot {
	case 1:
		if strings.Contains(stageName, "Tie") || strings.Contains(stageName, "Losers Round") {
			return models.EdgeLoserAdvances
		}
	case 2:
		if strings.Contains(stageName, "Tie") || strings.Contains(stageName, "Losers") {
			return models.EdgeLoserAdvances
		}
	}
	return models.EdgeWinnerAdvances
}

// stageNames maps stage UIDs to names.
func stageNames(b *Bracket) map[string]string {
	names := make(map[string]string, len(b.Stages))
	for _, s := range b.Stages {
		names[s.UID] = s.Name
	}
	return names
}
