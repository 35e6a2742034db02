package bank

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"marketing-quiz-service/internal/domain"
)

// OptionsPerQuestion is the fixed number of choices each question carries.
const OptionsPerQuestion = 4

var ErrInvalidBank = errors.New("invalid question bank")

// Validate checks the invariants every bank must hold before it is served.
func Validate(b domain.QuestionBank) error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidBank)
	}
	seen := make(map[int]struct{}, len(b.Questions))
	for _, q := range b.Questions {
		if q.ID <= 0 {
			return fmt.Errorf("%w: question id %d must be positive", ErrInvalidBank, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidBank, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidBank, q.ID)
		}
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("%w: question %d has %d options, want %d", ErrInvalidBank, q.ID, len(q.Options), OptionsPerQuestion)
		}
		distinct := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			distinct[o] = struct{}{}
		}
		if len(distinct) != len(q.Options) {
			return fmt.Errorf("%w: question %d repeats an option", ErrInvalidBank, q.ID)
		}
		if !q.HasOption(q.Answer) {
			return fmt.Errorf("%w: question %d answer is not one of its options", ErrInvalidBank, q.ID)
		}
	}
	return nil
}

// LoadFile reads a YAML question bank and validates it.
func LoadFile(path string) (domain.QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("read question bank: %w", err)
	}
	var b domain.QuestionBank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("parse question bank: %w", err)
	}
	if err := Validate(b); err != nil {
		return domain.QuestionBank{}, err
	}
	return b, nil
}
