package models

import "time"

// PlaceholderInnings marks a roster slot that no real player fills.
const PlaceholderInnings = 999

// Player is a roster entry. Innings is the player's configured game length, credited as
// the score of a walkover win.
type Player struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Innings      int       `json:"innings" db:"innings"`
	Position     int       `json:"position" db:"position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func NewPlaceholderPlayer(tournamentID, position int) *Player {
	return &Player{TournamentID: tournamentID, Innings: PlaceholderInnings, Position: position}
}

func (p *Player) IsPlaceholder() bool {
	return p.Name == "" && p.Innings == PlaceholderInnings
}

func (p *Player) DisplayName() string {
	if p.Name == "" {
		return "-"
	}
	return p.Name
}
