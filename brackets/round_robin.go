package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-brackets/models"
)

type GroupRoundRobinGenerator struct{}

func NewGroupRoundRobinGenerator() BracketGenerator {
	return &GroupRoundRobinGenerator{}
}

func (g *GroupRoundRobinGenerator) GetName() string {
	return "GroupRoundRobin"
}

// GenerateBracket cuts the roster into contiguous groups of the configured size and
// creates one match for every pair inside a group. Players beyond num_groups*group_size
// are not placed. The caller is expected to have shuffled the roster.
func (g *GroupRoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	numGroups, groupSize, _, err := ValidateGroupSettings(params.Tournament, len(params.Players))
	if err != nil {
		return nil, err
	}

	b := newBracketBuilder(params)
	for gIdx := 0; gIdx < numGroups; gIdx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := params.Players[gIdx*groupSize : (gIdx+1)*groupSize]
		stage := b.addStage(RoundRobinStageName(gIdx+1), gIdx+1)
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				b.addDirectMatch(stage, group[i], group[j])
			}
		}
	}
	return b.finish(), nil
}

func RoundRobinStageName(group int) string {
	return fmt.Sprintf("Group %d Round Robin", group)
}

// ValidateGroupSettings checks that a round robin tournament can be split into its
// configured groups with the given number of players.
func ValidateGroupSettings(t *models.Tournament, playerCount int) (numGroups, groupSize, advancePerGroup int, err error) {
	if t == nil {
		return 0, 0, 0, fmt.Errorf("%w: tournament is required", ErrInvalidGroupSettings)
	}
	numGroups, groupSize, advancePerGroup, ok := t.GroupSettings()
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: num_groups, group_size and advance_per_group are required", ErrInvalidGroupSettings)
	}
	if numGroups <= 0 || groupSize < 2 || advancePerGroup <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: num_groups and advance_per_group must be positive and group_size at least 2", ErrInvalidGroupSettings)
	}
	if needed := numGroups * groupSize; needed > playerCount {
		return 0, 0, 0, fmt.Errorf("%w: %d groups of %d need at least %d players, have %d", ErrInvalidGroupSettings, numGroups, groupSize, needed, playerCount)
	}
	if advancePerGroup > groupSize {
		return 0, 0, 0, fmt.Errorf("%w: advance_per_group (%d) cannot exceed group_size (%d)", ErrInvalidGroupSettings, advancePerGroup, groupSize)
	}
	return numGroups, groupSize, advancePerGroup, nil
}
