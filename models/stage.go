package models

import "strings"

// Stage groups the matches of one round or one group. Order is only used for display.
type Stage struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Name         string `json:"name" db:"name"`
	Order        int    `json:"order" db:"stage_order"`
}

// IsGroupPhase reports whether the stage belongs to the first phase of a two phase
// tournament (round robin groups or double elimination qualification).
func (s *Stage) IsGroupPhase() bool {
	return strings.Contains(s.Name, "Round") || strings.Contains(s.Name, "Qualification")
}
