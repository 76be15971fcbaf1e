package brackets

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-brackets/models"
)

type SeedingStrategy string

const (
	SeedRoundRobinStandings  SeedingStrategy = "round_robin_standings"
	SeedDoubleElimQualifiers SeedingStrategy = "double_elim_qualifiers"
)

func (s SeedingStrategy) IsValid() bool {
	return s == SeedRoundRobinStandings || s == SeedDoubleElimQualifiers
}

// DefaultSeedingStrategy is the strategy matching the tournament's first phase.
func DefaultSeedingStrategy(t models.TournamentType) (SeedingStrategy, bool) {
	switch t {
	case models.TypeRoundRobin:
		return SeedRoundRobinStandings, true
	case models.TypeDoubleElimination:
		return SeedDoubleElimQualifiers, true
	}
	return "", false
}

// Shuffler is satisfied by *rand.Rand.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandShuffler is a Shuffler safe for concurrent use.
type RandShuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandShuffler seeds a shuffler; seed 0 uses the current time.
func NewRandShuffler(seed int64) *RandShuffler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandShuffler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

// SeedFromStandings takes the top advancePerGroup players of every group, group by group,
// and shuffles the flattened list.
func SeedFromStandings(standings Standings, advancePerGroup int, shuffler Shuffler) []*models.Player {
	seeded := make([]*models.Player, 0, len(standings)*advancePerGroup)
	for _, group := range standings {
		for i, row := range group.Rows {
			if i >= advancePerGroup {
				break
			}
			seeded = append(seeded, row.Player)
		}
	}
	shuffler.Shuffle(len(seeded), func(i, j int) { seeded[i], seeded[j] = seeded[j], seeded[i] })
	return seeded
}

// SeedFromDoubleElimination collects the winners of every winners' qualification match
// and every losers' qualification match, shuffles both lists independently and
// interleaves them winner, loser, winner, loser.
func SeedFromDoubleElimination(stages []*models.Stage, matches []*models.Match, players map[int]*models.Player, shuffler Shuffler) ([]*models.Player, error) {
	stageByID := make(map[int]*models.Stage, len(stages))
	for _, s := range stages {
		stageByID[s.ID] = s
	}

	var winners, losers []*models.Player
	for _, m := range matches {
		stage, ok := stageByID[m.StageID]
		if !ok {
			continue
		}
		var list *[]*models.Player
		switch {
		case strings.HasSuffix(stage.Name, StageWinnersQualification):
			list = &winners
		case strings.HasSuffix(stage.Name, StageLosersQualification):
			list = &losers
		default:
			continue
		}
		if m.WinnerID == nil {
			return nil, fmt.Errorf("%w: match #%d in %s", ErrQualifiersUndecided, m.MatchNumber, stage.Name)
		}
		p, ok := players[*m.WinnerID]
		if !ok {
			return nil, fmt.Errorf("match #%d winner %d is not on the roster", m.MatchNumber, *m.WinnerID)
		}
		*list = append(*list, p)
	}

	shuffler.Shuffle(len(winners), func(i, j int) { winners[i], winners[j] = winners[j], winners[i] })
	shuffler.Shuffle(len(losers), func(i, j int) { losers[i], losers[j] = losers[j], losers[i] })

	n := min(len(winners), len(losers))
	seeded := make([]*models.Player, 0, 2*n)
	for i := 0; i < n; i++ {
		seeded = append(seeded, winners[i], losers[i])
	}
	return seeded, nil
}

// PadWithPlaceholders places placeholders in the second slot of the last first-round
// pairs so no two placeholders meet. It needs len(seeded)+len(placeholders) to be a power
// of two with no more placeholders than pairs.
func PadWithPlaceholders(seeded, placeholders []*models.Player) ([]*models.Player, error) {
	total := len(seeded) + len(placeholders)
	if !IsPowerOfTwo(total) {
		return nil, fmt.Errorf("%w: %d players after padding", ErrBracketSizeNotPowerOfTwo, total)
	}
	if len(placeholders) > total/2 {
		return nil, fmt.Errorf("too many placeholders (%d) for a bracket of %d", len(placeholders), total)
	}
	out := make([]*models.Player, 0, total)
	realPairs := total/2 - len(placeholders)
	out = append(out, seeded[:2*realPairs]...)
	for i, p := range seeded[2*realPairs:] {
		out = append(out, p, placeholders[i])
	}
	return out, nil
}
