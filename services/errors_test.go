package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	kinds := []error{ErrConfiguration, ErrStateConflict, ErrReference}

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid input", ErrInvalidTournamentInput, ErrConfiguration},
		{"roster size", fmt.Errorf("%w: 9 entries", ErrRosterSize), ErrConfiguration},
		{"group settings", ErrInvalidGroupSettings, ErrConfiguration},
		{"already decided", fmt.Errorf("%w: match #3", ErrMatchAlreadyDecided), ErrStateConflict},
		{"bracket exists", ErrBracketAlreadyExists, ErrStateConflict},
		{"unknown match", ErrMatchNotFound, ErrReference},
		{"unknown tournament", mapRepositoryError(repositories.ErrTournamentNotFound), ErrReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, kind := range kinds {
				assert.Equal(t, kind == tt.kind, errors.Is(tt.err, kind), "kind %v", kind)
			}
		})
	}
}

func TestClassifyBracketError(t *testing.T) {
	t.Run("group settings keep their sentinel", func(t *testing.T) {
		err := classifyBracketError(fmt.Errorf("%w: 3 groups of 4 need 12 players", brackets.ErrInvalidGroupSettings))
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.ErrorIs(t, err, ErrInvalidGroupSettings)
		assert.ErrorIs(t, err, brackets.ErrInvalidGroupSettings)
		assert.NotErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("undecided qualifiers conflict", func(t *testing.T) {
		err := classifyBracketError(fmt.Errorf("%w: match #4", brackets.ErrQualifiersUndecided))
		assert.ErrorIs(t, err, ErrStateConflict)
		assert.ErrorIs(t, err, ErrQualifiersUndecided)
	})

	t.Run("unknown standings player is a reference error", func(t *testing.T) {
		err := classifyBracketError(fmt.Errorf("%w: match #7", brackets.ErrUnknownPlayer))
		assert.ErrorIs(t, err, ErrReference)
		assert.ErrorIs(t, err, brackets.ErrUnknownPlayer)
		assert.NotErrorIs(t, err, ErrConfiguration)
	})

	t.Run("duplicate match number means the bracket exists", func(t *testing.T) {
		err := classifyBracketError(fmt.Errorf("failed to create match #1: %w", repositories.ErrMatchNumberConflict))
		assert.ErrorIs(t, err, ErrBracketAlreadyExists)
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		assert.Same(t, ErrMatchNotFound, classifyBracketError(ErrMatchNotFound))
	})

	t.Run("unknown errors stay unclassified", func(t *testing.T) {
		err := classifyBracketError(errors.New("disk on fire"))
		for _, kind := range []error{ErrConfiguration, ErrStateConflict, ErrReference} {
			assert.NotErrorIs(t, err, kind)
		}
	})
}
