package models

import "time"

// TournamentType is the bracket format of a tournament.
type TournamentType string

const (
	TypeSingleElimination TournamentType = "single_elim"
	TypeDoubleElimination TournamentType = "double_elim"
	TypeRoundRobin        TournamentType = "round_robin"
)

func (t TournamentType) IsValid() bool {
	switch t {
	case TypeSingleElimination, TypeDoubleElimination, TypeRoundRobin:
		return true
	}
	return false
}

// DisplayName returns the human readable name of the format.
func (t TournamentType) DisplayName() string {
	switch t {
	case TypeSingleElimination:
		return "Single Elimination"
	case TypeDoubleElimination:
		return "Double Elimination"
	case TypeRoundRobin:
		return "Round Robin"
	}
	return string(t)
}

// Tournament is a named competition. The group settings are only set for round robin tournaments.
type Tournament struct {
	ID              int            `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Semester        string         `json:"semester" db:"semester"`
	Type            TournamentType `json:"type" db:"type"`
	PlayerNum       int            `json:"player_num" db:"player_num"`
	NumGroups       *int           `json:"num_groups,omitempty" db:"num_groups"`
	GroupSize       *int           `json:"group_size,omitempty" db:"group_size"`
	AdvancePerGroup *int           `json:"advance_per_group,omitempty" db:"advance_per_group"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// GroupSettings returns the round robin settings, or ok=false when any of them is missing.
func (t *Tournament) GroupSettings() (numGroups, groupSize, advancePerGroup int, ok bool) {
	if t.NumGroups == nil || t.GroupSize == nil || t.AdvancePerGroup == nil {
		return 0, 0, 0, false
	}
	return *t.NumGroups, *t.GroupSize, *t.AdvancePerGroup, true
}

func (t Tournament) String() string {
	return t.Name + " (" + t.Type.DisplayName() + ")"
}
