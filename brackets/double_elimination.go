package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-brackets/models"
)

const (
	maxDoubleElimGroups = 4

	StageInitialRound         = "Initial Round"
	StageLosersRound1         = "Losers Round 1"
	StageWinnersQualification = "Winners' Qualification"
	StageLosersQualification  = "Losers' Qualification"
)

var groupLabels = []string{"A", "B", "C", "D"}

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket splits the roster into up to four groups. Every group plays an initial
// round, a losers round for the initial losers, a winners' qualification for the initial
// winners and a losers' qualification where each losers round winner meets the loser of
// the mirrored winners' qualification match. Each group yields two qualifiers; the
// follow-up elimination bracket is built separately.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	players := params.Players
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughPlayers, len(players))
	}

	b := newBracketBuilder(params)
	for gIdx, group := range splitIntoGroups(players, maxDoubleElimGroups) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := GroupLabel(gIdx)
		initialStage := b.addStage(doubleElimStageName(label, StageInitialRound), gIdx*10+1)
		losersR1Stage := b.addStage(doubleElimStageName(label, StageLosersRound1), gIdx*10+2)
		winnersQualStage := b.addStage(doubleElimStageName(label, StageWinnersQualification), gIdx*10+3)
		losersQualStage := b.addStage(doubleElimStageName(label, StageLosersQualification), gIdx*10+4)

		initial := make([]*BracketMatch, 0, (len(group)+1)/2)
		for i := 0; i < len(group); i += 2 {
			var p2 *models.Player
			if i+1 < len(group) {
				p2 = group[i+1]
			}
			initial = append(initial, b.addDirectMatch(initialStage, group[i], p2))
		}

		losersR1 := make([]*BracketMatch, 0, (len(initial)+1)/2)
		for i := 0; i < len(initial); i += 2 {
			m := b.addMatch(losersR1Stage)
			m.Source1 = loserOf(initial[i])
			m.Source2 = loserOf(at(initial, i+1))
			m.IsLosersBracket = true
			losersR1 = append(losersR1, m)
		}

		winnersQual := make([]*BracketMatch, 0, (len(initial)+1)/2)
		for i := 0; i < len(initial); i += 2 {
			m := b.addMatch(winnersQualStage)
			m.Source1 = winnerOf(initial[i])
			m.Source2 = winnerOf(at(initial, i+1))
			winnersQual = append(winnersQual, m)
		}

		for i := range losersR1 {
			m := b.addMatch(losersQualStage)
			m.Source1 = winnerOf(losersR1[i])
			m.Source2 = loserOf(at(winnersQual, len(winnersQual)-1-i))
			m.IsLosersBracket = true
		}
	}

	return b.finish(), nil
}

// GroupLabel is A-D for the first four groups and the 1-based number after that.
func GroupLabel(idx int) string {
	if idx < len(groupLabels) {
		return groupLabels[idx]
	}
	return fmt.Sprintf("%d", idx+1)
}

func doubleElimStageName(label, round string) string {
	return fmt.Sprintf("Group %s %s", label, round)
}

// splitIntoGroups cuts players into chunks of ceil(n/maxGroups); the last chunk takes the
// remainder.
func splitIntoGroups(players []*models.Player, maxGroups int) [][]*models.Player {
	size := (len(players) + maxGroups - 1) / maxGroups
	groups := make([][]*models.Player, 0, maxGroups)
	for start := 0; start < len(players); start += size {
		end := min(start+size, len(players))
		groups = append(groups, players[start:end])
	}
	return groups
}

func at(matches []*BracketMatch, i int) *BracketMatch {
	if i < 0 || i >= len(matches) {
		return nil
	}
	return matches[i]
}
