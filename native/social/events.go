package social

import (
	"fmt"

	"chainsphere/core/events"
	"chainsphere/core/types"
)

const (
	// EventTypeUserRegistered is emitted when an address claims a profile.
	EventTypeUserRegistered = "social.user.registered"
	// EventTypeProfileUpdated is emitted when a profile is edited.
	EventTypeProfileUpdated = "social.profile.updated"
	// EventTypePostCreated is emitted when a post is published.
	EventTypePostCreated = "social.post.created"
	// EventTypePostEdited is emitted when a post body changes.
	EventTypePostEdited = "social.post.edited"
	// EventTypePostDeleted is emitted when a post is tombstoned.
	EventTypePostDeleted = "social.post.deleted"
	// EventTypeVoteCast is emitted for every accepted vote.
	EventTypeVoteCast = "social.vote.cast"
	// EventTypeCommentCreated is emitted when a comment is published.
	EventTypeCommentCreated = "social.comment.created"
	// EventTypeCommentEdited is emitted when a comment body changes.
	EventTypeCommentEdited = "social.comment.edited"
	// EventTypeCommentDeleted is emitted when a comment is tombstoned.
	EventTypeCommentDeleted = "social.comment.deleted"
	// EventTypeCommentLiked is emitted for every accepted comment like.
	EventTypeCommentLiked = "social.comment.liked"
	// EventTypeFeeCollected is emitted when a fee-gated action credits the pool.
	EventTypeFeeCollected = "social.fee.collected"
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

func userRegisteredEvent(p *Profile) *types.Event {
	return &types.Event{
		Type: EventTypeUserRegistered,
		Attributes: map[string]string{
			"userId":      fmt.Sprintf("%d", p.ID),
			"address":     hexAddr(p.Address),
			"displayName": p.DisplayName,
		},
	}
}

func profileUpdatedEvent(p *Profile) *types.Event {
	return &types.Event{
		Type: EventTypeProfileUpdated,
		Attributes: map[string]string{
			"userId":      fmt.Sprintf("%d", p.ID),
			"address":     hexAddr(p.Address),
			"displayName": p.DisplayName,
		},
	}
}

func postCreatedEvent(p *Post) *types.Event {
	return &types.Event{
		Type: EventTypePostCreated,
		Attributes: map[string]string{
			"postId": fmt.Sprintf("%d", p.ID),
			"author": hexAddr(p.Author),
		},
	}
}

func postEditedEvent(p *Post) *types.Event {
	return &types.Event{
		Type: EventTypePostEdited,
		Attributes: map[string]string{
			"postId": fmt.Sprintf("%d", p.ID),
			"author": hexAddr(p.Author),
		},
	}
}

func postDeletedEvent(p *Post) *types.Event {
	return &types.Event{
		Type: EventTypePostDeleted,
		Attributes: map[string]string{
			"postId": fmt.Sprintf("%d", p.ID),
			"author": hexAddr(p.Author),
		},
	}
}

func voteCastEvent(voter [20]byte, post *Post, dir VoteDirection) *types.Event {
	return &types.Event{
		Type: EventTypeVoteCast,
		Attributes: map[string]string{
			"postId":    fmt.Sprintf("%d", post.ID),
			"voter":     hexAddr(voter),
			"direction": dir.String(),
			"score":     fmt.Sprintf("%d", post.Score()),
		},
	}
}

func commentCreatedEvent(c *Comment) *types.Event {
	return &types.Event{
		Type: EventTypeCommentCreated,
		Attributes: map[string]string{
			"commentId": fmt.Sprintf("%d", c.ID),
			"postId":    fmt.Sprintf("%d", c.PostID),
			"author":    hexAddr(c.Author),
		},
	}
}

func commentEditedEvent(c *Comment) *types.Event {
	return &types.Event{
		Type: EventTypeCommentEdited,
		Attributes: map[string]string{
			"commentId": fmt.Sprintf("%d", c.ID),
			"author":    hexAddr(c.Author),
		},
	}
}

func commentDeletedEvent(c *Comment) *types.Event {
	return &types.Event{
		Type: EventTypeCommentDeleted,
		Attributes: map[string]string{
			"commentId": fmt.Sprintf("%d", c.ID),
			"author":    hexAddr(c.Author),
		},
	}
}

func commentLikedEvent(caller [20]byte, c *Comment) *types.Event {
	return &types.Event{
		Type: EventTypeCommentLiked,
		Attributes: map[string]string{
			"commentId": fmt.Sprintf("%d", c.ID),
			"liker":     hexAddr(caller),
			"likes":     fmt.Sprintf("%d", c.Likes),
		},
	}
}

func feeCollectedEvent(payer [20]byte, action string, paid string) *types.Event {
	return &types.Event{
		Type: EventTypeFeeCollected,
		Attributes: map[string]string{
			"payer":  hexAddr(payer),
			"action": action,
			"paid":   paid,
		},
	}
}
