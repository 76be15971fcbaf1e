package brackets

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-brackets/models"
)

// GroupStanding is the ranked table of one round robin group.
type GroupStanding struct {
	Stage *models.Stage     `json:"stage"`
	Rows  []models.Standing `json:"rows"`
}

// Standings lists the group tables in stage order.
type Standings []GroupStanding

// ByGroup returns the tables keyed by group stage name.
func (s Standings) ByGroup() map[string][]models.Standing {
	out := make(map[string][]models.Standing, len(s))
	for _, g := range s {
		out[g.Stage.Name] = g.Rows
	}
	return out
}

type record struct {
	wins, gamesFor, gamesAgainst int
}

// ConvertPoint turns a reported score into games: W is the player's innings, FF is zero,
// anything else must be an integer.
func ConvertPoint(point string, player *models.Player) (int, error) {
	point = strings.TrimSpace(point)
	switch {
	case strings.EqualFold(point, models.PointWalkover):
		return player.Innings, nil
	case strings.EqualFold(point, models.PointForfeit):
		return 0, nil
	}
	v, ok := parseGames(point)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, point)
	}
	return v, nil
}

// parseGames accepts plain digits only, without a sign.
func parseGames(point string) (int, bool) {
	if point == "" {
		return 0, false
	}
	for _, r := range point {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(point)
	return v, err == nil
}

// ValidatePoint accepts an empty score, W, FF or a non-negative integer.
func ValidatePoint(point string) error {
	point = strings.TrimSpace(point)
	if point == "" || strings.EqualFold(point, models.PointWalkover) || strings.EqualFold(point, models.PointForfeit) {
		return nil
	}
	if _, ok := parseGames(point); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidScore, point)
	}
	return nil
}

func IsGroupStage(s *models.Stage) bool {
	return strings.Contains(strings.ToLower(s.Name), "group")
}

// CalculateStandings aggregates wins, games for and games against of every round robin
// group stage. Matches missing a player or a score on either side are skipped. Rows are
// ranked by RanksAbove.
func CalculateStandings(stages []*models.Stage, matches []*models.Match, players map[int]*models.Player) (Standings, error) {
	groupStages := make([]*models.Stage, 0, len(stages))
	for _, s := range stages {
		if IsGroupStage(s) {
			groupStages = append(groupStages, s)
		}
	}
	sort.SliceStable(groupStages, func(i, j int) bool {
		return groupStages[i].Order < groupStages[j].Order
	})

	matchesByStage := make(map[int][]*models.Match)
	for _, m := range matches {
		matchesByStage[m.StageID] = append(matchesByStage[m.StageID], m)
	}

	records := make(map[int]*record)
	rec := func(id int) *record {
		r, ok := records[id]
		if !ok {
			r = &record{}
			records[id] = r
		}
		return r
	}

	for _, stage := range groupStages {
		for _, m := range matchesByStage[stage.ID] {
			if m.Player1ID == nil || m.Player2ID == nil {
				continue
			}
			if strings.TrimSpace(m.Point1) == "" || strings.TrimSpace(m.Point2) == "" {
				continue
			}
			p1, ok1 := players[*m.Player1ID]
			p2, ok2 := players[*m.Player2ID]
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("%w: match #%d", ErrUnknownPlayer, m.MatchNumber)
			}
			point1, err := ConvertPoint(m.Point1, p1)
			if err != nil {
				return nil, fmt.Errorf("match #%d: %w", m.MatchNumber, err)
			}
			point2, err := ConvertPoint(m.Point2, p2)
			if err != nil {
				return nil, fmt.Errorf("match #%d: %w", m.MatchNumber, err)
			}

			r1, r2 := rec(p1.ID), rec(p2.ID)
			r1.gamesFor += point1
			r1.gamesAgainst += point2
			r2.gamesFor += point2
			r2.gamesAgainst += point1
			if point1 > point2 {
				r1.wins++
			} else if point2 > point1 {
				r2.wins++
			}
		}
	}

	standings := make(Standings, 0, len(groupStages))
	for _, stage := range groupStages {
		seen := make(map[int]bool)
		rows := make([]models.Standing, 0)
		for _, m := range matchesByStage[stage.ID] {
			for _, id := range []*int{m.Player1ID, m.Player2ID} {
				if id == nil || seen[*id] {
					continue
				}
				p, ok := players[*id]
				if !ok {
					continue
				}
				seen[*id] = true
				r := rec(*id)
				rows = append(rows, models.Standing{
					Player:       p,
					Wins:         r.wins,
					GamesFor:     r.gamesFor,
					GamesAgainst: r.gamesAgainst,
					Ratio:        scoringRatio(r.gamesFor, r.gamesAgainst),
				})
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return RanksAbove(rows[i], rows[j])
		})
		standings = append(standings, GroupStanding{Stage: stage, Rows: rows})
	}
	return standings, nil
}

// RanksAbove orders standings by most wins, most games for, fewest games against and best
// ratio. Rows equal on all four fall back to the lower player ID.
func RanksAbove(a, b models.Standing) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.GamesFor != b.GamesFor {
		return a.GamesFor > b.GamesFor
	}
	if a.GamesAgainst != b.GamesAgainst {
		return a.GamesAgainst < b.GamesAgainst
	}
	if a.Ratio != b.Ratio {
		return a.Ratio > b.Ratio
	}
	return a.Player.ID < b.Player.ID
}

func scoringRatio(gamesFor, gamesAgainst int) float64 {
	total := gamesFor + gamesAgainst
	if total == 0 {
		return 0
	}
	return math.Round(float64(gamesFor)/float64(total)*1000) / 1000
}
