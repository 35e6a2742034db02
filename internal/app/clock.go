package app

import "time"

// Clock supplies time and fixed-delay callbacks; swapped in tests for determinism.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// SystemClock is the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Delays are the two fixed dwell times of the quiz flow.
type Delays struct {
	// Feedback is how long the correct/incorrect highlight stays before advancing.
	Feedback time.Duration
	// Result is the minimum time spent on the processing screen after saving.
	Result time.Duration
}

// DefaultDelays is the production pacing.
func DefaultDelays() Delays {
	return Delays{Feedback: 1200 * time.Millisecond, Result: 1500 * time.Millisecond}
}
