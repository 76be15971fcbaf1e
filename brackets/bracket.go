package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-brackets/models"
)

// Bracket is the generated graph before it is persisted. Matches are listed in creation
// order and every source reference points at a match listed earlier.
type Bracket struct {
	Stages  []*BracketStage
	Matches []*BracketMatch

	// NextMatchNumber is the first match number not used by this bracket.
	NextMatchNumber int
}

type BracketStage struct {
	UID   string
	Name  string
	Order int
}

type BracketSource struct {
	UID  string
	Edge models.EdgeType
}

type BracketMatch struct {
	UID         string
	StageUID    string
	MatchNumber int

	Player1ID *int
	Player2ID *int

	Source1 *BracketSource
	Source2 *BracketSource

	IsLosersBracket bool
	RoundNumber     *int
}

// MatchesInStage returns the matches of one stage in creation order.
func (b *Bracket) MatchesInStage(stageUID string) []*BracketMatch {
	var out []*BracketMatch
	for _, m := range b.Matches {
		if m.StageUID == stageUID {
			out = append(out, m)
		}
	}
	return out
}

func (b *Bracket) StageByName(name string) *BracketStage {
	for _, s := range b.Stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

type bracketBuilder struct {
	bracket     *Bracket
	matchNumber int
	orderOffset int
}

func newBracketBuilder(params GenerateBracketParams) *bracketBuilder {
	start := params.StartMatchNumber
	if start <= 0 {
		start = 1
	}
	return &bracketBuilder{
		bracket:     &Bracket{},
		matchNumber: start,
		orderOffset: params.StageOrderOffset,
	}
}

func (b *bracketBuilder) addStage(name string, order int) *BracketStage {
	s := &BracketStage{
		UID:   fmt.Sprintf("S%d", len(b.bracket.Stages)+1),
		Name:  name,
		Order: b.orderOffset + order,
	}
	b.bracket.Stages = append(b.bracket.Stages, s)
	return s
}

func (b *bracketBuilder) addMatch(stage *BracketStage) *BracketMatch {
	m := &BracketMatch{
		UID:         fmt.Sprintf("M%d", b.matchNumber),
		StageUID:    stage.UID,
		MatchNumber: b.matchNumber,
	}
	b.matchNumber++
	b.bracket.Matches = append(b.bracket.Matches, m)
	return m
}

func (b *bracketBuilder) addDirectMatch(stage *BracketStage, p1, p2 *models.Player) *BracketMatch {
	m := b.addMatch(stage)
	m.Player1ID = playerID(p1)
	m.Player2ID = playerID(p2)
	return m
}

func (b *bracketBuilder) finish() *Bracket {
	b.bracket.NextMatchNumber = b.matchNumber
	return b.bracket
}

func winnerOf(m *BracketMatch) *BracketSource {
	if m == nil {
		return nil
	}
	return &BracketSource{UID: m.UID, Edge: models.EdgeWinnerAdvances}
}

func loserOf(m *BracketMatch) *BracketSource {
	if m == nil {
		return nil
	}
	return &BracketSource{UID: m.UID, Edge: models.EdgeLoserAdvances}
}

func playerID(p *models.Player) *int {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
