package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned for commands sent after the session ended.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrQuizNotFound indicates the question bank could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question id is not the current question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option is not one of the question's choices.
	ErrOptionNotFound = errors.New("option not found")
	// ErrIdentityIncomplete is returned when a registration field is empty.
	ErrIdentityIncomplete = errors.New("full name, email and roll number are required")
	// ErrFeedbackPending rejects a second selection while feedback is shown.
	ErrFeedbackPending = errors.New("answer already locked for this question")
	// ErrCheckInFlight rejects a second registration while the roll number check runs.
	ErrCheckInFlight = errors.New("roll number check already in progress")
	// ErrInvalidTransition is wrapped by TransitionError.
	ErrInvalidTransition = errors.New("invalid screen transition")
	// ErrResultNotFound is returned when no result row exists for a roll number.
	ErrResultNotFound = errors.New("result not found")
	// ErrDuplicateRollNumber is returned when a result row already exists for the roll number.
	ErrDuplicateRollNumber = errors.New("roll number already has a result")
	// ErrNoResult is returned when a certificate is requested before the result screen.
	ErrNoResult = errors.New("quiz not finished")
)

// TransitionError describes a command that is not valid on the current screen.
type TransitionError struct {
	From Screen
	To   Screen
}

func (e *TransitionError) Error() string {
	return "cannot move from " + string(e.From) + " to " + string(e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
