package repositories_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Dosada05/tournament-brackets/db/dbtest"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	conn        *sql.DB
	tournaments repositories.TournamentRepository
	players     repositories.PlayerRepository
	stages      repositories.StageRepository
	matches     repositories.MatchRepository
}

func newFixture(t *testing.T) *fixture {
	conn := dbtest.Open(t)
	return &fixture{
		conn:        conn,
		tournaments: repositories.NewTournamentRepository(conn),
		players:     repositories.NewPlayerRepository(conn),
		stages:      repositories.NewStageRepository(conn),
		matches:     repositories.NewMatchRepository(conn),
	}
}

func intp(v int) *int { return &v }

func (f *fixture) tournament(t *testing.T, name string) *models.Tournament {
	t.Helper()
	tour := &models.Tournament{Name: name, Semester: "Fall 2024", Type: models.TypeSingleElimination, PlayerNum: 4}
	require.NoError(t, f.tournaments.Create(context.Background(), nil, tour))
	return tour
}

func (f *fixture) player(t *testing.T, tournamentID, position int, name string) *models.Player {
	t.Helper()
	p := &models.Player{TournamentID: tournamentID, Name: name, Innings: 20, Position: position}
	require.NoError(t, f.players.Create(context.Background(), nil, p))
	return p
}

func (f *fixture) stage(t *testing.T, tournamentID, order int, name string) *models.Stage {
	t.Helper()
	s := &models.Stage{TournamentID: tournamentID, Name: name, Order: order}
	require.NoError(t, f.stages.Create(context.Background(), nil, s))
	return s
}

func TestTournamentRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rr := &models.Tournament{
		Name:            "Club Championship",
		Semester:        "Spring 2025",
		Type:            models.TypeRoundRobin,
		PlayerNum:       8,
		NumGroups:       intp(2),
		GroupSize:       intp(4),
		AdvancePerGroup: intp(2),
	}
	require.NoError(t, f.tournaments.Create(ctx, nil, rr))
	assert.NotZero(t, rr.ID)
	assert.False(t, rr.CreatedAt.IsZero())

	got, err := f.tournaments.GetByID(ctx, nil, rr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Club Championship", got.Name)
	assert.Equal(t, "Spring 2025", got.Semester)
	assert.Equal(t, models.TypeRoundRobin, got.Type)
	assert.Equal(t, 8, got.PlayerNum)
	numGroups, groupSize, advance, ok := got.GroupSettings()
	require.True(t, ok)
	assert.Equal(t, []int{2, 4, 2}, []int{numGroups, groupSize, advance})
	assert.WithinDuration(t, rr.CreatedAt, got.CreatedAt, time.Millisecond)

	single := f.tournament(t, "Knockout Cup")
	got, err = f.tournaments.GetByID(ctx, nil, single.ID)
	require.NoError(t, err)
	_, _, _, ok = got.GroupSettings()
	assert.False(t, ok)

	list, err := f.tournaments.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, single.ID, list[0].ID, "newest first")

	list, err = f.tournaments.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rr.ID, list[0].ID)

	_, err = f.tournaments.GetByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, repositories.ErrTournamentNotFound)
}

func TestPlayerRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tournament(t, "Knockout Cup")

	f.player(t, tour.ID, 3, "Carol")
	f.player(t, tour.ID, 1, "Alice")
	placeholder := models.NewPlaceholderPlayer(tour.ID, 2)
	require.NoError(t, f.players.Create(ctx, nil, placeholder))

	players, err := f.players.ListByTournament(ctx, nil, tour.ID)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "Alice", players[0].Name)
	assert.True(t, players[1].IsPlaceholder())
	assert.Equal(t, "Carol", players[2].Name)

	err = f.players.Create(ctx, nil, &models.Player{TournamentID: 9999, Name: "Ghost", Innings: 10, Position: 1})
	assert.ErrorIs(t, err, repositories.ErrPlayerTournamentInvalid)
}

func TestStageRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tournament(t, "Knockout Cup")

	f.stage(t, tour.ID, 2, "Final")
	f.stage(t, tour.ID, 1, "Semifinal")

	stages, err := f.stages.ListByTournament(ctx, nil, tour.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "Semifinal", stages[0].Name)
	assert.Equal(t, "Final", stages[1].Name)

	err = f.stages.Create(ctx, nil, &models.Stage{TournamentID: tour.ID, Name: "Final", Order: 3})
	assert.ErrorIs(t, err, repositories.ErrStageNameConflict)

	other := f.tournament(t, "Other Cup")
	f.stage(t, other.ID, 1, "Final")
}

func TestMatchRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tournament(t, "Knockout Cup")
	alice := f.player(t, tour.ID, 1, "Alice")
	bob := f.player(t, tour.ID, 2, "Bob")
	carol := f.player(t, tour.ID, 3, "Carol")
	semis := f.stage(t, tour.ID, 1, "Semifinal")
	final := f.stage(t, tour.ID, 2, "Final")

	semi := &models.Match{
		TournamentID: tour.ID,
		StageID:      semis.ID,
		MatchNumber:  1,
		Player1ID:    intp(alice.ID),
		Player2ID:    intp(bob.ID),
		RoundNumber:  intp(1),
	}
	require.NoError(t, f.matches.Create(ctx, nil, semi))

	decider := &models.Match{
		TournamentID:    tour.ID,
		StageID:         final.ID,
		MatchNumber:     2,
		Player2ID:       intp(carol.ID),
		Source1:         &models.SourceRef{MatchID: semi.ID, Edge: models.EdgeLoserAdvances},
		IsLosersBracket: true,
	}
	require.NoError(t, f.matches.Create(ctx, nil, decider))

	t.Run("round trips sources and flags", func(t *testing.T) {
		got, err := f.matches.GetByID(ctx, nil, decider.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Source1)
		assert.Equal(t, models.SourceRef{MatchID: semi.ID, Edge: models.EdgeLoserAdvances}, *got.Source1)
		assert.Nil(t, got.Source2)
		assert.Nil(t, got.Player1ID)
		require.NotNil(t, got.Player2ID)
		assert.Equal(t, carol.ID, *got.Player2ID)
		assert.True(t, got.IsLosersBracket)
		assert.Nil(t, got.RoundNumber)
		assert.Nil(t, got.StartTime)
	})

	t.Run("lists by match number", func(t *testing.T) {
		matches, err := f.matches.ListByTournament(ctx, nil, tour.ID)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, 1, matches[0].MatchNumber)
		require.NotNil(t, matches[0].RoundNumber)
		assert.Equal(t, 1, *matches[0].RoundNumber)
		assert.Equal(t, 2, matches[1].MatchNumber)
	})

	t.Run("rejects a duplicate match number", func(t *testing.T) {
		err := f.matches.Create(ctx, nil, &models.Match{TournamentID: tour.ID, StageID: final.ID, MatchNumber: 1})
		assert.ErrorIs(t, err, repositories.ErrMatchNumberConflict)
	})

	t.Run("rejects an unknown stage", func(t *testing.T) {
		err := f.matches.Create(ctx, nil, &models.Match{TournamentID: tour.ID, StageID: 9999, MatchNumber: 50})
		assert.ErrorIs(t, err, repositories.ErrMatchReferenceInvalid)
	})

	t.Run("stores a result once", func(t *testing.T) {
		start := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
		semi.Point1 = "25"
		semi.Point2 = "17"
		semi.WinnerID = intp(alice.ID)
		semi.LoserID = intp(bob.ID)
		semi.Table = 4
		semi.StartTime = &start
		require.NoError(t, f.matches.UpdateResult(ctx, nil, semi))

		got, err := f.matches.GetByID(ctx, nil, semi.ID)
		require.NoError(t, err)
		assert.Equal(t, "25", got.Point1)
		assert.Equal(t, "17", got.Point2)
		assert.Equal(t, alice.ID, *got.WinnerID)
		assert.Equal(t, bob.ID, *got.LoserID)
		assert.Equal(t, 4, got.Table)
		require.NotNil(t, got.StartTime)
		assert.True(t, start.Equal(*got.StartTime))
		assert.Equal(t, models.OutcomePlayer1Wins, got.Outcome())

		semi.WinnerID = intp(bob.ID)
		assert.ErrorIs(t, f.matches.UpdateResult(ctx, nil, semi), repositories.ErrMatchConflict)
	})

	t.Run("fills one slot at a time", func(t *testing.T) {
		require.NoError(t, f.matches.UpdateSlot(ctx, nil, decider.ID, 1, intp(bob.ID)))
		require.NoError(t, f.matches.UpdateSlot(ctx, nil, decider.ID, 2, intp(carol.ID)))

		got, err := f.matches.GetByID(ctx, nil, decider.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Player1ID)
		require.NotNil(t, got.Player2ID)
		assert.Equal(t, bob.ID, *got.Player1ID, "writing slot 2 keeps slot 1")
		assert.Equal(t, carol.ID, *got.Player2ID)

		require.NoError(t, f.matches.UpdateSlot(ctx, nil, decider.ID, 1, nil))
		got, err = f.matches.GetByID(ctx, nil, decider.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Player1ID)
		require.NotNil(t, got.Player2ID)
		assert.Equal(t, carol.ID, *got.Player2ID)

		err = f.matches.UpdateSlot(ctx, nil, semi.ID, 1, intp(carol.ID))
		assert.ErrorIs(t, err, repositories.ErrMatchConflict)

		err = f.matches.UpdateSlot(ctx, nil, decider.ID, 3, intp(carol.ID))
		assert.ErrorIs(t, err, repositories.ErrInvalidSlot)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.matches.GetByID(ctx, nil, 9999)
		assert.ErrorIs(t, err, repositories.ErrMatchNotFound)
	})
}
