package rewards

import "chainsphere/oracle"

// RoundState tracks where a reward round sits in its lifecycle.
type RoundState string

const (
	// RoundStateAwaitingRandomness marks a round whose randomness request
	// is outstanding.
	RoundStateAwaitingRandomness RoundState = "awaiting_randomness"
	// RoundStateFinalized marks a round whose winner has been recorded.
	RoundStateFinalized RoundState = "finalized"
)

// Round is one reward cycle. The candidate pool is a snapshot taken when the
// randomness request was issued: votes and posts that land while the request
// is in flight affect the next round, never this one.
type Round struct {
	ID          uint64           `json:"id"`
	State       RoundState       `json:"state"`
	Pool        []uint64         `json:"pool"`
	RequestID   oracle.RequestID `json:"requestId"`
	StartedAt   int64            `json:"startedAt"`
	FinalizedAt int64            `json:"finalizedAt"`
	WinnerPost  uint64           `json:"winnerPost"`
}

// Clone returns a deep copy of the round.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Pool = append([]uint64(nil), r.Pool...)
	return &clone
}

// Winner records a finalized round outcome for the recent-winners history.
type Winner struct {
	RoundID   uint64 `json:"roundId"`
	PostID    uint64 `json:"postId"`
	Word      string `json:"word"`
	DecidedAt int64  `json:"decidedAt"`
}

// Window is the rolling eligibility window. Upkeep becomes due once the
// configured interval has elapsed since Start.
type Window struct {
	Start int64 `json:"start"`
}

// Clone returns a copy of the window.
func (w *Window) Clone() *Window {
	if w == nil {
		return nil
	}
	clone := *w
	return &clone
}
