package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int {
	return &v
}

func TestMatch_Outcome(t *testing.T) {
	m := &Match{Player1ID: intp(1), Player2ID: intp(2)}
	assert.Equal(t, OutcomeUnsettled, m.Outcome())
	assert.False(t, m.IsDecided())

	m.WinnerID = intp(1)
	assert.Equal(t, OutcomePlayer1Wins, m.Outcome())
	assert.Equal(t, "player1", m.Outcome().String())

	m.WinnerID = intp(2)
	assert.Equal(t, OutcomePlayer2Wins, m.Outcome())
	assert.True(t, m.IsDecided())

	assert.Equal(t, "unsettled", OutcomeUnsettled.String())
}

func TestMatch_SlotDisplay(t *testing.T) {
	players := map[int]*Player{
		1: {ID: 1, Name: "Alice"},
		2: {ID: 2, Innings: PlaceholderInnings},
	}
	matches := map[int]*Match{
		10: {ID: 10, MatchNumber: 7},
	}

	m := &Match{Player1ID: intp(1), Player2ID: intp(2)}
	assert.Equal(t, "Alice", m.SlotDisplay(1, players, matches))
	assert.Equal(t, "-", m.SlotDisplay(2, players, matches))

	waiting := &Match{
		Source1: &SourceRef{MatchID: 10, Edge: EdgeWinnerAdvances},
		Source2: &SourceRef{MatchID: 10, Edge: EdgeLoserAdvances},
	}
	assert.Equal(t, "Winner of Match #7", waiting.SlotDisplay(1, players, matches))
	assert.Equal(t, "Loser of Match #7", waiting.SlotDisplay(2, players, matches))

	assert.Equal(t, "-", (&Match{}).SlotDisplay(1, players, matches))
}

func TestPlayer_Placeholder(t *testing.T) {
	p := NewPlaceholderPlayer(3, 5)
	assert.True(t, p.IsPlaceholder())
	assert.Equal(t, 3, p.TournamentID)
	assert.Equal(t, 5, p.Position)
	assert.Equal(t, "-", p.DisplayName())

	real := &Player{Name: "Bob", Innings: PlaceholderInnings}
	assert.False(t, real.IsPlaceholder())
	assert.Equal(t, "Bob", real.DisplayName())
}

func TestStage_IsGroupPhase(t *testing.T) {
	for _, name := range []string{"Group 1 Round Robin", "Group A Initial Round", "Group B Losers Round 1", "Group C Winners' Qualification"} {
		assert.True(t, (&Stage{Name: name}).IsGroupPhase(), name)
	}
	for _, name := range []string{"Final", "Semi-final", "Quarter-final", "Last 16", "Tie Breaker"} {
		assert.False(t, (&Stage{Name: name}).IsGroupPhase(), name)
	}
}

func TestTournament_GroupSettings(t *testing.T) {
	tr := &Tournament{Name: "Spring Cup", Type: TypeRoundRobin}
	_, _, _, ok := tr.GroupSettings()
	assert.False(t, ok)

	tr.NumGroups, tr.GroupSize, tr.AdvancePerGroup = intp(2), intp(4), intp(2)
	groups, size, advance, ok := tr.GroupSettings()
	assert.True(t, ok)
	assert.Equal(t, []int{2, 4, 2}, []int{groups, size, advance})
	assert.Equal(t, "Spring Cup (Round Robin)", tr.String())

	assert.True(t, TypeDoubleElimination.IsValid())
	assert.False(t, TournamentType("swiss").IsValid())
}
