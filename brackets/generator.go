package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-brackets/models"
)

var (
	ErrNotEnoughPlayers         = errors.New("not enough players to generate a bracket (minimum 2)")
	ErrBracketSizeNotPowerOfTwo = errors.New("single elimination bracket size must be a power of two")
	ErrInvalidGroupSettings     = errors.New("invalid group settings")
	ErrInvalidScore             = errors.New("invalid score")
	ErrQualifiersUndecided      = errors.New("qualification matches are not decided yet")
	ErrUnknownPlayer            = errors.New("match references a player outside the roster")
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Players    []*models.Player

	// StartMatchNumber is the first match number handed out; 0 means 1.
	StartMatchNumber int
	// StageOrderOffset is added to every stage order so a follow-up bracket sorts after
	// the stages that already exist.
	StageOrderOffset int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// GeneratorFor returns the builder for the initial bracket of a tournament type.
func GeneratorFor(t models.TournamentType) (BracketGenerator, bool) {
	switch t {
	case models.TypeSingleElimination:
		return NewSingleEliminationGenerator(), true
	case models.TypeDoubleElimination:
		return NewDoubleEliminationGenerator(), true
	case models.TypeRoundRobin:
		return NewGroupRoundRobinGenerator(), true
	}
	return nil, false
}
