package models

import (
	"fmt"
	"time"
)

// Score tokens accepted besides plain integers.
const (
	PointWalkover = "W"
	PointForfeit  = "FF"
)

// EdgeType tells which side of a source match fills the dependent slot.
type EdgeType string

const (
	EdgeWinnerAdvances EdgeType = "winner"
	EdgeLoserAdvances  EdgeType = "loser"
)

func (e EdgeType) IsValid() bool {
	return e == EdgeWinnerAdvances || e == EdgeLoserAdvances
}

// SourceRef points from a slot to the earlier match that will fill it.
type SourceRef struct {
	MatchID int      `json:"match_id"`
	Edge    EdgeType `json:"edge"`
}

type Outcome int

const (
	OutcomeUnsettled Outcome = iota
	OutcomePlayer1Wins
	OutcomePlayer2Wins
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlayer1Wins:
		return "player1"
	case OutcomePlayer2Wins:
		return "player2"
	}
	return "unsettled"
}

type Match struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`
	StageID      int `json:"stage_id" db:"stage_id"`
	MatchNumber  int `json:"match_number" db:"match_number"`

	Player1ID *int       `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID *int       `json:"player2_id,omitempty" db:"player2_id"`
	Source1   *SourceRef `json:"source1,omitempty" db:"-"`
	Source2   *SourceRef `json:"source2,omitempty" db:"-"`

	Point1   string `json:"point1" db:"point1"`
	Point2   string `json:"point2" db:"point2"`
	WinnerID *int   `json:"winner_id,omitempty" db:"winner_id"`
	LoserID  *int   `json:"loser_id,omitempty" db:"loser_id"`

	IsLosersBracket bool       `json:"is_losers_bracket" db:"is_losers_bracket"`
	RoundNumber     *int       `json:"round_number,omitempty" db:"round_number"`
	Table           int        `json:"table" db:"table_number"`
	StartTime       *time.Time `json:"start_time,omitempty" db:"start_time"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (m *Match) IsDecided() bool {
	return m.WinnerID != nil
}

func (m *Match) Outcome() Outcome {
	if m.WinnerID == nil {
		return OutcomeUnsettled
	}
	if m.Player1ID != nil && *m.Player1ID == *m.WinnerID {
		return OutcomePlayer1Wins
	}
	if m.Player2ID != nil && *m.Player2ID == *m.WinnerID {
		return OutcomePlayer2Wins
	}
	return OutcomeUnsettled
}

// Slot returns the player and source reference of slot 1 or 2.
func (m *Match) Slot(slot int) (*int, *SourceRef) {
	if slot == 1 {
		return m.Player1ID, m.Source1
	}
	return m.Player2ID, m.Source2
}

// SlotDisplay renders a slot for humans: the player's name, "Winner of Match #7" while
// the slot still waits on a source match, or "-".
func (m *Match) SlotDisplay(slot int, players map[int]*Player, matches map[int]*Match) string {
	playerID, source := m.Slot(slot)
	if playerID != nil {
		if p, ok := players[*playerID]; ok {
			return p.DisplayName()
		}
		return fmt.Sprintf("Player #%d", *playerID)
	}
	if source != nil {
		side := "Winner"
		if source.Edge == EdgeLoserAdvances {
			side = "Loser"
		}
		if src, ok := matches[source.MatchID]; ok {
			return fmt.Sprintf("%s of Match #%d", side, src.MatchNumber)
		}
		return side + " of previous match"
	}
	return "-"
}
