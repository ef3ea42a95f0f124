package social

import (
	"fmt"
	"strings"
)

// Profile captures a registered user. One profile exists per address; the
// numeric id is assigned at registration and stable for the profile lifetime.
type Profile struct {
	ID          uint64   `json:"id"`
	Address     [20]byte `json:"address"`
	DisplayName string   `json:"displayName"`
	Bio         string   `json:"bio"`
	ImageHash   string   `json:"imageHash"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Post is a published piece of content. Ids are monotonic and never reused;
// deletion tombstones the record instead of reclaiming the id.
type Post struct {
	ID        uint64   `json:"id"`
	Author    [20]byte `json:"author"`
	Content   string   `json:"content"`
	ImageHash string   `json:"imageHash"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Upvotes   uint64   `json:"upvotes"`
	Downvotes uint64   `json:"downvotes"`
	Deleted   bool     `json:"deleted"`
}

// Score is the net vote balance used for reward eligibility. Downvotes can
// push it negative.
func (p *Post) Score() int64 {
	if p == nil {
		return 0
	}
	return int64(p.Upvotes) - int64(p.Downvotes)
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Comment belongs to a post. Comment ids share a single global sequence so a
// bare id is enough for direct lookup.
type Comment struct {
	ID        uint64   `json:"id"`
	PostID    uint64   `json:"postId"`
	Author    [20]byte `json:"author"`
	Content   string   `json:"content"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Likes     uint64   `json:"likes"`
	Deleted   bool     `json:"deleted"`
}

// Clone returns a deep copy of the comment.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// VoteDirection distinguishes the two vote kinds. A voter gets exactly one
// vote per post regardless of direction.
type VoteDirection uint8

const (
	// VoteUp increments the post's upvote counter.
	VoteUp VoteDirection = iota + 1
	// VoteDown increments the post's downvote counter.
	VoteDown
)

// String renders the direction for events and the query surface.
func (d VoteDirection) String() string {
	switch d {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// ParseVoteDirection converts the wire representation back into a direction.
func ParseVoteDirection(raw string) (VoteDirection, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "upvote":
		return VoteUp, nil
	case "down", "downvote":
		return VoteDown, nil
	default:
		return 0, fmt.Errorf("social: unknown vote direction %q", raw)
	}
}
