package domain

import (
	"strings"
	"time"
)

// Question models an MCQ question; Answer must equal one of Options.
type Question struct {
	ID      int      `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []string `json:"options" yaml:"options"`
	Answer  string   `json:"answer" yaml:"answer"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// QuestionBank is the ordered, immutable set of questions for one quiz.
type QuestionBank struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Len is the number of questions, N in the scoring formula.
func (b QuestionBank) Len() int {
	return len(b.Questions)
}

// Lookup finds a question by id.
func (b QuestionBank) Lookup(id int) (Question, bool) {
	for _, q := range b.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionView is the public projection of a question; it never carries the answer.
type QuestionView struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Index   int      `json:"index"`
	Total   int      `json:"total"`
}

// Public returns the bank without answers.
func (b QuestionBank) Public() []QuestionView {
	views := make([]QuestionView, 0, len(b.Questions))
	for i, q := range b.Questions {
		views = append(views, q.view(i, len(b.Questions)))
	}
	return views
}

func (q Question) view(index, total int) QuestionView {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionView{ID: q.ID, Text: q.Text, Options: options, Index: index, Total: total}
}

// ViewAt returns the public projection of the question at index.
func (b QuestionBank) ViewAt(index int) (QuestionView, bool) {
	if index < 0 || index >= len(b.Questions) {
		return QuestionView{}, false
	}
	return b.Questions[index].view(index, len(b.Questions)), true
}

// Identity is what a participant enters on the registration screen.
type Identity struct {
	FullName   string `json:"fullName"`
	EmailID    string `json:"emailId"`
	RollNumber string `json:"rollNumber"`
}

// Normalize trims surrounding whitespace from every field.
func (i Identity) Normalize() Identity {
	return Identity{
		FullName:   strings.TrimSpace(i.FullName),
		EmailID:    strings.TrimSpace(i.EmailID),
		RollNumber: strings.TrimSpace(i.RollNumber),
	}
}

// Validate requires all three fields to be non-empty.
func (i Identity) Validate() error {
	if i.FullName == "" || i.EmailID == "" || i.RollNumber == "" {
		return ErrIdentityIncomplete
	}
	return nil
}

// AnswerSet maps question id to the selected option.
type AnswerSet map[int]string

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ResultRecord is the persisted outcome of one completed attempt.
type ResultRecord struct {
	ID         int64     `json:"id,omitempty"`
	FullName   string    `json:"full_name"`
	EmailID    string    `json:"email_id,omitempty"`
	RollNumber string    `json:"roll_number"`
	Score      int       `json:"score"`
	Percentage int       `json:"percentage"`
	Badge      Badge     `json:"badge"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// NewResultRecord builds the row for identity from a computed score.
func NewResultRecord(identity Identity, score Score) ResultRecord {
	return ResultRecord{
		FullName:   identity.FullName,
		EmailID:    identity.EmailID,
		RollNumber: identity.RollNumber,
		Score:      score.Correct,
		Percentage: score.Percentage,
		Badge:      score.Badge,
	}
}

// LeaderboardEntry is a read-only projection of a result row.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	FullName   string `json:"fullName"`
	RollNumber string `json:"rollNumber"`
	Score      int    `json:"score"`
	Percentage int    `json:"percentage"`
	Badge      Badge  `json:"badge"`
}

// Leaderboard captures the top results, replaced wholesale on every refresh.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	Loading   bool               `json:"loading"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewLeaderboard ranks records in the order given.
func NewLeaderboard(records []ResultRecord, now time.Time) Leaderboard {
	entries := make([]LeaderboardEntry, 0, len(records))
	for i, r := range records {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			FullName:   r.FullName,
			RollNumber: r.RollNumber,
			Score:      r.Score,
			Percentage: r.Percentage,
			Badge:      r.Badge,
		})
	}
	return Leaderboard{Entries: entries, UpdatedAt: now}
}

// InsertEvent is pushed whenever a result row is appended.
type InsertEvent struct {
	RollNumber string `json:"rollNumber"`
}

// Certificate is everything the certificate image shows.
type Certificate struct {
	Title      string
	FullName   string
	RollNumber string
	Score      Score
	IssuedAt   time.Time
}
