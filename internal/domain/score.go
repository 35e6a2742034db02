package domain

import "math"

// Badge is the performance tier derived from a percentage.
type Badge string

const (
	BadgeGold          Badge = "Gold"
	BadgeSilver        Badge = "Silver"
	BadgeBronze        Badge = "Bronze"
	BadgeParticipation Badge = "Participation"
)

// BadgeFor maps a percentage to its tier. Bands are closed at the lower bound
// and checked highest first.
func BadgeFor(pct int) Badge {
	switch {
	case pct >= 90:
		return BadgeGold
	case pct >= 75:
		return BadgeSilver
	case pct >= 60:
		return BadgeBronze
	default:
		return BadgeParticipation
	}
}

// Message is the headline shown next to the score.
func (b Badge) Message() string {
	switch b {
	case BadgeGold:
		return "Elite Performance!"
	case BadgeSilver:
		return "Outstanding!"
	case BadgeBronze:
		return "Well Done!"
	default:
		return "Keep Practicing!"
	}
}

// Icon is the medal glyph printed on certificates and rankings.
func (b Badge) Icon() string {
	switch b {
	case BadgeGold:
		return "🥇"
	case BadgeSilver:
		return "🥈"
	case BadgeBronze:
		return "🥉"
	default:
		return "🎖"
	}
}

// Score is the result of evaluating an answer set against a bank.
type Score struct {
	Correct    int   `json:"score"`
	Total      int   `json:"total"`
	Percentage int   `json:"percentage"`
	Badge      Badge `json:"badge"`
}

// Evaluate counts answers that match the bank's recorded answer. Unanswered
// questions and ids missing from the bank contribute nothing, so partial sets
// are fine.
func Evaluate(answers AnswerSet, bank QuestionBank) Score {
	correct := 0
	for id, selected := range answers {
		if q, ok := bank.Lookup(id); ok && q.Answer == selected {
			correct++
		}
	}
	pct := Percentage(correct, bank.Len())
	return Score{
		Correct:    correct,
		Total:      bank.Len(),
		Percentage: pct,
		Badge:      BadgeFor(pct),
	}
}

// Percentage is round(100*score/total), half away from zero. An empty bank scores 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
