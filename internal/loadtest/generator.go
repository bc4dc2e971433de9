package loadtest

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/podium/internal/domain/types"
)

var criteriaPool = []string{"Innovation", "Design", "Impact", "Execution", "Pitch"}

// Scenario is a generated hackathon: one event, its teams and every vote and
// judge score that will be cast.
type Scenario struct {
	Seed      int64                    `json:"seed"`
	Organizer string                   `json:"organizer"`
	Event     types.CreateEventRequest `json:"event"`
	Teams     []TeamPlan               `json:"teams"`
	Votes     []VotePlan               `json:"votes"`
	Scores    []ScorePlan              `json:"scores"`
}

// TeamPlan is a team and the single submission its owner files.
type TeamPlan struct {
	Owner      string                        `json:"owner"`
	Team       types.CreateTeamRequest       `json:"team"`
	Submission types.CreateSubmissionRequest `json:"submission"`
}

// VotePlan is one public vote on Teams[Team]'s submission.
type VotePlan struct {
	Voter string `json:"voter"`
	Team  int    `json:"team"`
	Score int    `json:"score"`
}

// ScorePlan is one judge's score set for Teams[Team]'s submission.
type ScorePlan struct {
	Judge  string             `json:"judge"`
	Team   int                `json:"team"`
	Scores []types.ScoreInput `json:"scores"`
}

// Expected is the outcome a scenario must produce for one team.
type Expected struct {
	TotalScore  float64
	PublicVotes float64
}

// Generate builds a scenario from cfg. The same seed yields the same scenario.
func Generate(cfg *Config) *Scenario {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(uint64(seed))

	judges := make([]string, cfg.Judges)
	for i := range judges {
		judges[i] = fmt.Sprintf("judge-%d", i+1)
	}
	pool := append([]string(nil), criteriaPool...)
	faker.ShuffleAnySlice(pool)
	chosen := pool[:faker.Number(2, 3)]
	criteria := make([]types.CriterionConfig, len(chosen))
	for i, name := range chosen {
		criteria[i] = types.CriterionConfig{Name: name, Weight: 1, MaxScore: 100}
	}

	sc := &Scenario{
		Seed:      seed,
		Organizer: "organizer",
		Event: types.CreateEventRequest{
			Name:     faker.Sentence(faker.Number(2, 4)),
			MaxTeams: cfg.Teams,
			Judges:   judges,
			Criteria: criteria,
		},
	}

	for i := 0; i < cfg.Teams; i++ {
		owner := fmt.Sprintf("owner-%d", i+1)
		sc.Teams = append(sc.Teams, TeamPlan{
			Owner: owner,
			Team: types.CreateTeamRequest{
				Name:    fmt.Sprintf("%s %d", faker.AppName(), i+1),
				Members: []string{owner, faker.Numerify("member-######")},
			},
			Submission: types.CreateSubmissionRequest{
				Name:        faker.AppName(),
				Description: faker.Sentence(faker.Number(5, 12)),
			},
		})
	}

	for _, judge := range judges {
		for team := range sc.Teams {
			scores := make([]types.ScoreInput, len(criteria))
			for k, c := range criteria {
				scores[k] = types.ScoreInput{Criterion: c.Name, Score: float64(faker.Number(0, 100))}
			}
			sc.Scores = append(sc.Scores, ScorePlan{Judge: judge, Team: team, Scores: scores})
		}
	}

	for v := 0; v < cfg.Voters; v++ {
		voter := fmt.Sprintf("voter-%d", v+1)
		for team := range sc.Teams {
			if faker.Bool() {
				sc.Votes = append(sc.Votes, VotePlan{Voter: voter, Team: team, Score: faker.Number(1, 5)})
			}
		}
	}
	faker.ShuffleAnySlice(sc.Votes)
	return sc
}

// Expect computes the per-team totals the service must report once every
// planned vote and score has been applied.
func (sc *Scenario) Expect() []Expected {
	out := make([]Expected, len(sc.Teams))
	sums := make([]int, len(sc.Teams))
	counts := make([]int, len(sc.Teams))
	for _, s := range sc.Scores {
		for _, in := range s.Scores {
			out[s.Team].TotalScore += in.Score
		}
	}
	for _, v := range sc.Votes {
		sums[v.Team] += v.Score
		counts[v.Team]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i].PublicVotes = float64(sums[i]) / float64(counts[i])
		}
	}
	return out
}
