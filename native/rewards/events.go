package rewards

import (
	"fmt"

	"chainsphere/core/events"
	"chainsphere/core/types"
)

const (
	// EventTypeRoundStarted is emitted when upkeep snapshots a pool and
	// issues a randomness request.
	EventTypeRoundStarted = "rewards.round.started"
	// EventTypeWinnerSelected is emitted when a round finalizes.
	EventTypeWinnerSelected = "rewards.winner.selected"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func roundStartedEvent(round *Round) *types.Event {
	return &types.Event{
		Type: EventTypeRoundStarted,
		Attributes: map[string]string{
			"roundId":   fmt.Sprintf("%d", round.ID),
			"poolSize":  fmt.Sprintf("%d", len(round.Pool)),
			"requestId": round.RequestID.String(),
		},
	}
}

func winnerSelectedEvent(round *Round, winner Winner) *types.Event {
	return &types.Event{
		Type: EventTypeWinnerSelected,
		Attributes: map[string]string{
			"roundId": fmt.Sprintf("%d", round.ID),
			"postId":  fmt.Sprintf("%d", winner.PostID),
			"word":    winner.Word,
		},
	}
}
