package domain

// BotStatus is the bot's operational state.
type BotStatus string

const (
	BotStatusRunning BotStatus = "RUNNING"
	BotStatusStopped BotStatus = "STOPPED"
	BotStatusError   BotStatus = "ERROR"
)

// BotState is the capital and exposure state for one bot session. It is
// owned by the orchestration layer and mutated only by the settlement-update
// step; everything else reads it by value.
//
// Current capital is always derived from StartingCapital + TotalPnL and is
// never stored independently.
type BotState struct {
	StartingCapital float64 // immutable per session
	PeakCapital     float64 // monotonically non-decreasing
	TotalPnL        float64
	CurrentExposure float64
	Status          BotStatus
}

// NewBotState creates a running session with peak capital seeded from
// starting capital.
func NewBotState(startingCapital float64) BotState {
	return BotState{
		StartingCapital: startingCapital,
		PeakCapital:     startingCapital,
		Status:          BotStatusRunning,
	}
}

// CurrentCapital returns the derived capital for this session.
func (s BotState) CurrentCapital() float64 {
	return s.StartingCapital + s.TotalPnL
}

// ApplyPnL folds a realized profit or loss into the session and advances the
// peak-capital high-water mark.
func (s *BotState) ApplyPnL(pnl float64) {
	s.TotalPnL += pnl
	if c := s.CurrentCapital(); c > s.PeakCapital {
		s.PeakCapital = c
	}
}

// SessionSummary is a snapshot of the bot's run, reported at shutdown.
type SessionSummary struct {
	StartingCapital float64
	FinalCapital    float64
	PeakCapital     float64
	TotalPnL        float64
	TradesSubmitted int
	Wins            int
	Losses          int
	Pushes          int
	Skips           int
	Rejections      int
}
