package scoring

import (
	"math"
	"time"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
)

// AutoJudgeID is the judge ID carried by automatically generated records.
const AutoJudgeID = "auto-judge"

// Criterion names produced by AutoJudge, in output order.
const (
	CriterionInnovation          = "Innovation"
	CriterionTechnicalComplexity = "Technical Complexity"
	CriterionCompleteness        = "Completeness"
	CriterionDocumentation       = "Documentation"
	CriterionPresentation        = "Presentation"
)

const (
	minRating         = 1
	maxRating         = 10
	ratingScale       = 10
	techPerItem       = 10
	techItemsCap      = 50
	linesPerPoint     = 100
	linesOfCodeCap    = 50
	autoJudgeFeedback = "automated evaluation"
)

// AutoJudge derives score records from metadata. Output order is fixed and
// ScoredAt is left zero so repeated runs on the same input are identical.
// A rating outside 1-10 fails with errs.ErrInvalidRange.
func AutoJudge(meta *model.Metadata) ([]model.ScoreRecord, error) {
	if meta == nil {
		return nil, errs.ErrNoMetadata
	}

	var out []model.ScoreRecord
	add := func(criterion string, score float64) {
		out = append(out, model.ScoreRecord{
			Criterion: criterion,
			Score:     score,
			MaxScore:  DefaultMaxScore,
			JudgeID:   AutoJudgeID,
			Feedback:  autoJudgeFeedback,
			ScoredAt:  time.Time{},
		})
	}

	for _, r := range []*int{meta.Innovation, meta.Completeness, meta.Documentation, meta.Presentation} {
		if r != nil && (*r < minRating || *r > maxRating) {
			return nil, errs.ErrInvalidRange
		}
	}

	if meta.Innovation != nil {
		add(CriterionInnovation, rating(*meta.Innovation))
	}
	if len(meta.Technologies) > 0 || meta.LinesOfCode != nil {
		add(CriterionTechnicalComplexity, technicalComplexity(meta))
	}
	if meta.Completeness != nil {
		add(CriterionCompleteness, rating(*meta.Completeness))
	}
	if meta.Documentation != nil {
		add(CriterionDocumentation, rating(*meta.Documentation))
	}
	if meta.Presentation != nil {
		add(CriterionPresentation, rating(*meta.Presentation))
	}

	if len(out) == 0 {
		return nil, errs.ErrNoMetadata
	}
	return out, nil
}

// rating scales a validated 1-10 rating to 10-100.
func rating(v int) float64 {
	return float64(v * ratingScale)
}

func technicalComplexity(meta *model.Metadata) float64 {
	tech := math.Min(float64(len(meta.Technologies)*techPerItem), techItemsCap)
	var loc float64
	if meta.LinesOfCode != nil && *meta.LinesOfCode > 0 {
		loc = math.Min(float64(*meta.LinesOfCode)/linesPerPoint, linesOfCodeCap)
	}
	return tech + loc
}
