package rewards

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"chainsphere/core/events"
	"chainsphere/core/types"
	"chainsphere/oracle"
)

var (
	errNilState          = errors.New("rewards engine: state not configured")
	errCoordinatorNotSet = errors.New("rewards engine: randomness coordinator not configured")

	// ErrRoundPending is returned when upkeep is performed while a round is
	// still awaiting randomness. At most one round can be in flight.
	ErrRoundPending = errors.New("rewards engine: round already pending")
	// ErrUpkeepNotDue is returned when upkeep is performed before the due
	// predicate holds.
	ErrUpkeepNotDue = errors.New("rewards engine: upkeep not due")
)

type engineState interface {
	RewardsWindowGet() (*Window, bool, error)
	RewardsWindowPut(window *Window) error
	RewardsPendingRoundGet() (*Round, bool, error)
	RewardsPendingRoundPut(round *Round) error
	RewardsPendingRoundClear() error
	RewardsNextRoundID() (uint64, error)
	RewardsRoundArchive(round *Round) error
	RewardsWinnersGet() ([]Winner, error)
	RewardsWinnersPut(winners []Winner) error
	EligiblePostIDs(minScore int64) ([]uint64, error)
	GetAccount(addr []byte) (*types.Account, error)
}

// Engine drives the reward lifecycle: a rolling window decides when upkeep is
// due, upkeep snapshots the eligible pool and asks the randomness coordinator
// for entropy, and a later fulfilment invocation finalizes the round.
//
// A round whose fulfilment never arrives stays pending forever; there is no
// timeout or cancellation path.
type Engine struct {
	state       engineState
	emitter     events.Emitter
	coordinator oracle.RandomnessCoordinator
	config      Config
	nowFn       func() int64
	pool        [20]byte
}

// NewEngine constructs a reward engine with the supplied configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		config:  cfg,
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetCoordinator configures the randomness coordinator client.
func (e *Engine) SetCoordinator(coordinator oracle.RandomnessCoordinator) {
	e.coordinator = coordinator
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPoolAccount configures the fee pool account whose balance gates upkeep.
func (e *Engine) SetPoolAccount(addr [20]byte) { e.pool = addr }

// Threshold exposes the configured eligibility threshold.
func (e *Engine) Threshold() int64 { return e.config.Threshold }

// IsEligibleScore reports whether a net score crosses the threshold.
func (e *Engine) IsEligibleScore(score int64) bool {
	return score >= e.config.Threshold
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitWindow starts the eligibility window if none exists yet. It is called
// once at genesis and is a no-op afterwards.
func (e *Engine) InitWindow(now int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.RewardsWindowGet(); err != nil {
		return err
	} else if ok {
		return nil
	}
	return e.state.RewardsWindowPut(&Window{Start: now})
}

// EligiblePostIDs returns the current candidate pool: live posts at or above
// the threshold, in creation order. The set is derived on every call so vote
// mutations are visible immediately.
func (e *Engine) EligiblePostIDs() ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.EligiblePostIDs(e.config.Threshold)
}

// RecentTrending is the query-surface alias for the live eligible set.
func (e *Engine) RecentTrending() ([]uint64, error) {
	return e.EligiblePostIDs()
}

// CheckDue reports whether upkeep should be performed: the window interval
// has elapsed, the eligible pool is non-empty and the fee pool holds a
// positive balance. The predicate is pure and may be polled freely.
func (e *Engine) CheckDue(now int64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	window, ok, err := e.state.RewardsWindowGet()
	if err != nil {
		return false, err
	}
	if !ok || window == nil {
		return false, nil
	}
	if now-window.Start < int64(e.config.IntervalSeconds) {
		return false, nil
	}
	pool, err := e.state.EligiblePostIDs(e.config.Threshold)
	if err != nil {
		return false, err
	}
	if len(pool) == 0 {
		return false, nil
	}
	account, err := e.state.GetAccount(e.pool[:])
	if err != nil {
		return false, err
	}
	balance := types.EnsureAccount(account).Balance
	return balance.Sign() > 0, nil
}

// BeginRound performs upkeep: it snapshots the eligible pool, issues one
// randomness request and records the pending round. The window restarts
// immediately so a slow fulfilment cannot trigger a flood of requests. A
// failed request submission aborts the call with no state change.
func (e *Engine) BeginRound(now int64) (*Round, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.coordinator == nil {
		return nil, errCoordinatorNotSet
	}
	if _, ok, err := e.state.RewardsPendingRoundGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrRoundPending
	}
	due, err := e.CheckDue(now)
	if err != nil {
		return nil, err
	}
	if !due {
		return nil, ErrUpkeepNotDue
	}
	pool, err := e.state.EligiblePostIDs(e.config.Threshold)
	if err != nil {
		return nil, err
	}
	requestID, err := e.coordinator.RequestRandomWords(e.config.NumWords)
	if err != nil {
		return nil, fmt.Errorf("rewards engine: randomness request failed: %w", err)
	}
	roundID, err := e.state.RewardsNextRoundID()
	if err != nil {
		return nil, err
	}
	round := &Round{
		ID:        roundID,
		State:     RoundStateAwaitingRandomness,
		Pool:      append([]uint64(nil), pool...),
		RequestID: requestID,
		StartedAt: now,
	}
	if err := e.state.RewardsPendingRoundPut(round); err != nil {
		return nil, err
	}
	if err := e.state.RewardsWindowPut(&Window{Start: now}); err != nil {
		return nil, err
	}
	e.emit(roundStartedEvent(round))
	return round.Clone(), nil
}

// PendingRound returns the round currently awaiting randomness, if any.
func (e *Engine) PendingRound() (*Round, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	round, ok, err := e.state.RewardsPendingRoundGet()
	if err != nil || !ok {
		return nil, false, err
	}
	return round.Clone(), true, nil
}

// Fulfill consumes a randomness delivery. A delivery whose request id does
// not match the pending round — including duplicates for an already finalized
// round — is silently ignored: such callbacks are not actionable by anyone.
// On a match the first word indexes the snapshotted pool, the round is
// finalized and the winner joins the bounded history.
func (e *Engine) Fulfill(requestID oracle.RequestID, words []*big.Int) (*Winner, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	round, ok, err := e.state.RewardsPendingRoundGet()
	if err != nil {
		return nil, false, err
	}
	if !ok || round == nil || round.RequestID != requestID {
		return nil, false, nil
	}
	if len(words) == 0 || words[0] == nil || len(round.Pool) == 0 {
		return nil, false, nil
	}
	now := e.now()
	index := new(big.Int).Mod(words[0], big.NewInt(int64(len(round.Pool))))
	winner := Winner{
		RoundID:   round.ID,
		PostID:    round.Pool[index.Int64()],
		Word:      words[0].String(),
		DecidedAt: now,
	}
	round.State = RoundStateFinalized
	round.FinalizedAt = now
	round.WinnerPost = winner.PostID
	if err := e.state.RewardsRoundArchive(round); err != nil {
		return nil, false, err
	}
	if err := e.state.RewardsPendingRoundClear(); err != nil {
		return nil, false, err
	}
	winners, err := e.state.RewardsWinnersGet()
	if err != nil {
		return nil, false, err
	}
	winners = append(winners, winner)
	if len(winners) > e.config.WinnerHistory {
		winners = winners[len(winners)-e.config.WinnerHistory:]
	}
	if err := e.state.RewardsWinnersPut(winners); err != nil {
		return nil, false, err
	}
	e.emit(winnerSelectedEvent(round, winner))
	return &winner, true, nil
}

// FulfillRandomWords adapts the engine to the coordinator's consumer
// contract.
func (e *Engine) FulfillRandomWords(id oracle.RequestID, words []*big.Int) error {
	_, _, err := e.Fulfill(id, words)
	return err
}

// RecentWinners returns the bounded history of finalized round outcomes,
// oldest first.
func (e *Engine) RecentWinners() ([]Winner, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	winners, err := e.state.RewardsWinnersGet()
	if err != nil {
		return nil, err
	}
	return append([]Winner(nil), winners...), nil
}
