package models

// Standing is one row of a round robin group table.
type Standing struct {
	Player       *Player `json:"player"`
	Wins         int     `json:"wins"`
	GamesFor     int     `json:"games_for"`
	GamesAgainst int     `json:"games_against"`
	Ratio        float64 `json:"ratio"`
}
