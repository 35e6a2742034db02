package domain

// Screen is one full-screen view of the quiz flow.
type Screen string

const (
	ScreenLanding     Screen = "landing"
	ScreenInfo        Screen = "info"
	ScreenQuiz        Screen = "quiz"
	ScreenProcessing  Screen = "processing"
	ScreenResult      Screen = "result"
	ScreenLeaderboard Screen = "leaderboard"
	ScreenBlocked     Screen = "blocked"
)

// SaveStatus tracks the outcome of persisting a result.
type SaveStatus string

const (
	SaveIdle    SaveStatus = "idle"
	SaveSaving  SaveStatus = "saving"
	SaveSuccess SaveStatus = "success"
	SaveError   SaveStatus = "error"
)
