package brackets

import (
	"context"
	"fmt"
	"math/bits"
)

const (
	StageFinal        = "Final"
	StageSemiFinal    = "Semi-final"
	StageQuarterFinal = "Quarter-final"
	StageTieBreaker   = "Tie Breaker"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket pairs consecutive players in round one and consecutive matches in
// every later round. When the bracket has semi-finals a tie breaker between the two
// semi-final losers is added after the final. Players must already be padded to a power
// of two.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	players := params.Players
	n := len(players)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughPlayers, n)
	}
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: got %d players, pad to %d", ErrBracketSizeNotPowerOfTwo, n, NextPowerOfTwo(n))
	}

	numRounds := bits.TrailingZeros(uint(n))
	b := newBracketBuilder(params)

	stages := make([]*BracketStage, numRounds)
	for i := 0; i < numRounds; i++ {
		stages[i] = b.addStage(EliminationStageName(n>>i), i+1)
	}

	currentRound := make([]*BracketMatch, 0, n/2)
	for i := 0; i < n; i += 2 {
		currentRound = append(currentRound, b.addDirectMatch(stages[0], players[i], players[i+1]))
	}

	var semiFinals []*BracketMatch
	for r := 1; r < numRounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(currentRound) == 2 {
			semiFinals = currentRound
		}
		nextRound := make([]*BracketMatch, 0, len(currentRound)/2)
		for i := 0; i < len(currentRound); i += 2 {
			m := b.addMatch(stages[r])
			m.Source1 = winnerOf(currentRound[i])
			m.Source2 = winnerOf(currentRound[i+1])
			nextRound = append(nextRound, m)
		}
		currentRound = nextRound
	}

	if semiFinals != nil {
		stage := b.addStage(StageTieBreaker, numRounds+1)
		m := b.addMatch(stage)
		m.Source1 = loserOf(semiFinals[0])
		m.Source2 = loserOf(semiFinals[1])
	}

	return b.finish(), nil
}

// EliminationStageName names a round by the number of players still in it.
func EliminationStageName(remaining int) string {
	switch remaining {
	case 2:
		return StageFinal
	case 4:
		return StageSemiFinal
	case 8:
		return StageQuarterFinal
	}
	return fmt.Sprintf("Last %d", remaining)
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
