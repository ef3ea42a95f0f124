package social

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"chainsphere/core/events"
	"chainsphere/core/types"
)

var (
	errNilState = errors.New("social engine: state not configured")

	// ErrInvalidUsername is returned when a display name violates the
	// naming constraints.
	ErrInvalidUsername = errors.New("social engine: invalid username")
	// ErrUsernameTaken is returned when the normalised display name is
	// already owned by another address.
	ErrUsernameTaken = errors.New("social engine: username already taken")
	// ErrAlreadyRegistered is returned when an address registers twice.
	ErrAlreadyRegistered = errors.New("social engine: address already registered")
	// ErrNotRegistered is returned when the invoker has no profile.
	ErrNotRegistered = errors.New("social engine: user does not exist")
	// ErrPostNotFound is returned for unknown or deleted posts.
	ErrPostNotFound = errors.New("social engine: post not found")
	// ErrCommentNotFound is returned for unknown or deleted comments.
	ErrCommentNotFound = errors.New("social engine: comment not found")
	// ErrNotPostOwner is returned when a caller mutates a post they do not own.
	ErrNotPostOwner = errors.New("social engine: caller is not the post owner")
	// ErrNotCommentOwner is returned when a caller mutates a comment they do not own.
	ErrNotCommentOwner = errors.New("social engine: caller is not the comment owner")
	// ErrNotOwner is returned when an owner-only operation is invoked by
	// anyone but the configured contract owner.
	ErrNotOwner = errors.New("social engine: caller is not the owner")
	// ErrSelfVote is returned when an author votes on their own post.
	ErrSelfVote = errors.New("social engine: authors cannot vote on their own posts")
	// ErrAlreadyVoted is returned on any second vote for the same post.
	ErrAlreadyVoted = errors.New("social engine: already voted on this post")
	// ErrAlreadyLiked is returned on a duplicate comment like.
	ErrAlreadyLiked = errors.New("social engine: already liked this comment")
)

type engineState interface {
	SocialProfileGet(addr [20]byte) (*Profile, bool, error)
	SocialProfilePut(profile *Profile) error
	SocialUsernameOwner(name string) ([20]byte, bool, error)
	SocialUsernamePut(name string, addr [20]byte) error
	SocialUsernameDelete(name string) error
	SocialNextUserID() (uint64, error)
	SocialNextPostID() (uint64, error)
	SocialPostGet(id uint64) (*Post, bool, error)
	SocialPostPut(post *Post) error
	SocialNextCommentID() (uint64, error)
	SocialCommentGet(id uint64) (*Comment, bool, error)
	SocialCommentPut(comment *Comment) error
	SocialPostCommentsGet(postID uint64) ([]uint64, error)
	SocialPostCommentsAppend(postID uint64, commentID uint64) error
	SocialVoteGet(postID uint64, voter [20]byte) (VoteDirection, bool, error)
	SocialVotePut(postID uint64, voter [20]byte, dir VoteDirection) error
	SocialVotersAppend(postID uint64, voter [20]byte) error
	SocialVotersGet(postID uint64) ([][20]byte, error)
	SocialCommentLikeGet(commentID uint64, addr [20]byte) (bool, error)
	SocialCommentLikePut(commentID uint64, addr [20]byte) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// feeGate validates an attached payment against a USD-denominated minimum.
// The returned value is the native amount that was required.
type feeGate interface {
	Authorize(paid *big.Int, usdFee *big.Int) (*big.Int, error)
}

// Engine wires the social ledger business logic with persistence, fee
// collection and event emission. Invocations are serialized by the external
// ordering service; the engine itself performs no locking.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	nowFn        func() int64
	gate         feeGate
	editFeeUSD   *big.Int
	deleteFeeUSD *big.Int
	owner        [20]byte
	pool         [20]byte
}

// NewEngine constructs a social engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		editFeeUSD:   big.NewInt(0),
		deleteFeeUSD: big.NewInt(0),
	}
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

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetFeeGate configures the payment gate applied to fee-gated mutations.
// Without a gate every mutation is free.
func (e *Engine) SetFeeGate(gate feeGate) { e.gate = gate }

// SetFees configures the USD-denominated minimums (1e18 scale) for edits and
// deletions.
func (e *Engine) SetFees(editUSD, deleteUSD *big.Int) {
	e.editFeeUSD = newBigInt(editUSD)
	e.deleteFeeUSD = newBigInt(deleteUSD)
}

// SetOwner configures the contract owner consulted by owner-only operations.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetPoolAccount configures the account credited with collected fees.
func (e *Engine) SetPoolAccount(addr [20]byte) { e.pool = addr }

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

// collectFee validates the attached payment against the USD minimum and
// credits the full amount to the pool account. Overpayment is kept: the fee
// is a minimum, not an exact price.
func (e *Engine) collectFee(payer [20]byte, action string, usdFee, paid *big.Int) error {
	if e.gate == nil || usdFee == nil || usdFee.Sign() <= 0 {
		return nil
	}
	if _, err := e.gate.Authorize(paid, usdFee); err != nil {
		return err
	}
	account, err := e.state.GetAccount(e.pool[:])
	if err != nil {
		return err
	}
	account = types.EnsureAccount(account)
	account.Balance = new(big.Int).Add(account.Balance, paid)
	if err := e.state.PutAccount(e.pool[:], account); err != nil {
		return err
	}
	e.emit(feeCollectedEvent(payer, action, paid.String()))
	return nil
}

// Register claims a profile for the supplied address. Display names are
// normalised before the uniqueness check, so names differing only in case or
// surrounding whitespace collide.
func (e *Engine) Register(addr [20]byte, displayName, bio, imageHash string) (*Profile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	name, err := NormalizeUsername(displayName)
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.SocialProfileGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyRegistered
	}
	if _, ok, err := e.state.SocialUsernameOwner(name); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrUsernameTaken
	}
	id, err := e.state.SocialNextUserID()
	if err != nil {
		return nil, err
	}
	now := e.now()
	profile := &Profile{
		ID:          id,
		Address:     addr,
		DisplayName: name,
		Bio:         strings.TrimSpace(bio),
		ImageHash:   strings.TrimSpace(imageHash),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.state.SocialUsernamePut(name, addr); err != nil {
		return nil, err
	}
	if err := e.state.SocialProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(userRegisteredEvent(profile))
	return profile.Clone(), nil
}

// UpdateProfile edits an existing profile. Renames re-check uniqueness and
// release the previous name.
func (e *Engine) UpdateProfile(addr [20]byte, displayName, bio, imageHash string) (*Profile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	profile, err := e.requireRegistered(addr)
	if err != nil {
		return nil, err
	}
	name, err := NormalizeUsername(displayName)
	if err != nil {
		return nil, err
	}
	if name != profile.DisplayName {
		if owner, ok, err := e.state.SocialUsernameOwner(name); err != nil {
			return nil, err
		} else if ok && owner != addr {
			return nil, ErrUsernameTaken
		}
		if err := e.state.SocialUsernameDelete(profile.DisplayName); err != nil {
			return nil, err
		}
		if err := e.state.SocialUsernamePut(name, addr); err != nil {
			return nil, err
		}
	}
	profile.DisplayName = name
	profile.Bio = strings.TrimSpace(bio)
	profile.ImageHash = strings.TrimSpace(imageHash)
	profile.UpdatedAt = e.now()
	if err := e.state.SocialProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(profileUpdatedEvent(profile))
	return profile.Clone(), nil
}

// CreatePost publishes a new post for a registered author.
func (e *Engine) CreatePost(author [20]byte, content, imageHash string) (*Post, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.requireRegistered(author); err != nil {
		return nil, err
	}
	id, err := e.state.SocialNextPostID()
	if err != nil {
		return nil, err
	}
	now := e.now()
	post := &Post{
		ID:        id,
		Author:    author,
		Content:   content,
		ImageHash: strings.TrimSpace(imageHash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.state.SocialPostPut(post); err != nil {
		return nil, err
	}
	e.emit(postCreatedEvent(post))
	return post.Clone(), nil
}

// EditPost replaces a post body. Only the author may edit, and the attached
// payment must cover the USD edit fee.
func (e *Engine) EditPost(author [20]byte, postID uint64, content, imageHash string, paid *big.Int) (*Post, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	post, err := e.requirePostOwner(author, postID)
	if err != nil {
		return nil, err
	}
	if err := e.collectFee(author, "post.edit", e.editFeeUSD, paid); err != nil {
		return nil, err
	}
	post.Content = content
	post.ImageHash = strings.TrimSpace(imageHash)
	post.UpdatedAt = e.now()
	if err := e.state.SocialPostPut(post); err != nil {
		return nil, err
	}
	e.emit(postEditedEvent(post))
	return post.Clone(), nil
}

// DeletePost tombstones a post. The id is never reused and the post drops out
// of eligibility and lookups. The attached payment must cover the USD delete
// fee.
func (e *Engine) DeletePost(author [20]byte, postID uint64, paid *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	post, err := e.requirePostOwner(author, postID)
	if err != nil {
		return err
	}
	if err := e.collectFee(author, "post.delete", e.deleteFeeUSD, paid); err != nil {
		return err
	}
	post.Deleted = true
	post.UpdatedAt = e.now()
	if err := e.state.SocialPostPut(post); err != nil {
		return err
	}
	e.emit(postDeletedEvent(post))
	return nil
}

// CastVote records a single vote for the (voter, post) pair. A second vote in
// either direction fails, and authors can never vote on their own posts.
func (e *Engine) CastVote(voter [20]byte, postID uint64, dir VoteDirection) (*Post, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if dir != VoteUp && dir != VoteDown {
		return nil, fmt.Errorf("social engine: invalid vote direction %d", dir)
	}
	if _, err := e.requireRegistered(voter); err != nil {
		return nil, err
	}
	post, ok, err := e.state.SocialPostGet(postID)
	if err != nil {
		return nil, err
	}
	if !ok || post == nil || post.Deleted {
		return nil, ErrPostNotFound
	}
	if post.Author == voter {
		return nil, ErrSelfVote
	}
	if _, ok, err := e.state.SocialVoteGet(postID, voter); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyVoted
	}
	if dir == VoteUp {
		post.Upvotes++
	} else {
		post.Downvotes++
	}
	if err := e.state.SocialPostPut(post); err != nil {
		return nil, err
	}
	if err := e.state.SocialVotePut(postID, voter, dir); err != nil {
		return nil, err
	}
	if err := e.state.SocialVotersAppend(postID, voter); err != nil {
		return nil, err
	}
	e.emit(voteCastEvent(voter, post, dir))
	return post.Clone(), nil
}

// Upvote casts an upvote for the supplied post.
func (e *Engine) Upvote(voter [20]byte, postID uint64) (*Post, error) {
	return e.CastVote(voter, postID, VoteUp)
}

// Downvote casts a downvote for the supplied post.
func (e *Engine) Downvote(voter [20]byte, postID uint64) (*Post, error) {
	return e.CastVote(voter, postID, VoteDown)
}

// HasVoted reports whether the voter already holds a vote record for the post.
func (e *Engine) HasVoted(voter [20]byte, postID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	_, ok, err := e.state.SocialVoteGet(postID, voter)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// CreateComment publishes a comment under an existing post. Comment ids come
// from a single global sequence.
func (e *Engine) CreateComment(author [20]byte, postID uint64, content string) (*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.requireRegistered(author); err != nil {
		return nil, err
	}
	post, ok, err := e.state.SocialPostGet(postID)
	if err != nil {
		return nil, err
	}
	if !ok || post == nil || post.Deleted {
		return nil, ErrPostNotFound
	}
	id, err := e.state.SocialNextCommentID()
	if err != nil {
		return nil, err
	}
	now := e.now()
	comment := &Comment{
		ID:        id,
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.state.SocialCommentPut(comment); err != nil {
		return nil, err
	}
	if err := e.state.SocialPostCommentsAppend(postID, id); err != nil {
		return nil, err
	}
	e.emit(commentCreatedEvent(comment))
	return comment.Clone(), nil
}

// EditComment replaces a comment body. Only the author may edit.
func (e *Engine) EditComment(author [20]byte, commentID uint64, content string) (*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	comment, err := e.requireCommentOwner(author, commentID)
	if err != nil {
		return nil, err
	}
	comment.Content = content
	comment.UpdatedAt = e.now()
	if err := e.state.SocialCommentPut(comment); err != nil {
		return nil, err
	}
	e.emit(commentEditedEvent(comment))
	return comment.Clone(), nil
}

// DeleteComment tombstones a comment. The attached payment must cover the USD
// delete fee.
func (e *Engine) DeleteComment(author [20]byte, commentID uint64, paid *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	comment, err := e.requireCommentOwner(author, commentID)
	if err != nil {
		return err
	}
	if err := e.collectFee(author, "comment.delete", e.deleteFeeUSD, paid); err != nil {
		return err
	}
	comment.Deleted = true
	comment.UpdatedAt = e.now()
	if err := e.state.SocialCommentPut(comment); err != nil {
		return err
	}
	e.emit(commentDeletedEvent(comment))
	return nil
}

// LikeComment records an at-most-once like for the (caller, comment) pair.
func (e *Engine) LikeComment(caller [20]byte, commentID uint64) (*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.requireRegistered(caller); err != nil {
		return nil, err
	}
	comment, ok, err := e.state.SocialCommentGet(commentID)
	if err != nil {
		return nil, err
	}
	if !ok || comment == nil || comment.Deleted {
		return nil, ErrCommentNotFound
	}
	liked, err := e.state.SocialCommentLikeGet(commentID, caller)
	if err != nil {
		return nil, err
	}
	if liked {
		return nil, ErrAlreadyLiked
	}
	comment.Likes++
	if err := e.state.SocialCommentPut(comment); err != nil {
		return nil, err
	}
	if err := e.state.SocialCommentLikePut(commentID, caller); err != nil {
		return nil, err
	}
	e.emit(commentLikedEvent(caller, comment))
	return comment.Clone(), nil
}

// GetProfile returns the profile registered for the address.
func (e *Engine) GetProfile(addr [20]byte) (*Profile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	profile, ok, err := e.state.SocialProfileGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return nil, ErrNotRegistered
	}
	return profile.Clone(), nil
}

// GetPost returns a post by id. Tombstoned posts behave as missing.
func (e *Engine) GetPost(id uint64) (*Post, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	post, ok, err := e.state.SocialPostGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || post == nil || post.Deleted {
		return nil, ErrPostNotFound
	}
	return post.Clone(), nil
}

// GetComment returns a comment by id. Tombstoned comments behave as missing.
func (e *Engine) GetComment(id uint64) (*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	comment, ok, err := e.state.SocialCommentGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || comment == nil || comment.Deleted {
		return nil, ErrCommentNotFound
	}
	return comment.Clone(), nil
}

// PostComments returns the live comments under a post in creation order.
func (e *Engine) PostComments(postID uint64) ([]*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.SocialPostCommentsGet(postID)
	if err != nil {
		return nil, err
	}
	comments := make([]*Comment, 0, len(ids))
	for _, id := range ids {
		comment, ok, err := e.state.SocialCommentGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || comment == nil || comment.Deleted {
			continue
		}
		comments = append(comments, comment.Clone())
	}
	return comments, nil
}

// PostVoters returns the audit log of addresses that voted on the post.
func (e *Engine) PostVoters(postID uint64) ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.SocialVotersGet(postID)
}

// RequireOwner rejects callers other than the configured contract owner.
func (e *Engine) RequireOwner(caller [20]byte) error {
	if e == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

// PoolBalance returns the fee pool balance. Owner-only.
func (e *Engine) PoolBalance(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.RequireOwner(caller); err != nil {
		return nil, err
	}
	account, err := e.state.GetAccount(e.pool[:])
	if err != nil {
		return nil, err
	}
	return newBigInt(types.EnsureAccount(account).Balance), nil
}

func (e *Engine) requireRegistered(addr [20]byte) (*Profile, error) {
	profile, ok, err := e.state.SocialProfileGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return nil, ErrNotRegistered
	}
	return profile, nil
}

func (e *Engine) requirePostOwner(caller [20]byte, postID uint64) (*Post, error) {
	post, ok, err := e.state.SocialPostGet(postID)
	if err != nil {
		return nil, err
	}
	if !ok || post == nil || post.Deleted {
		return nil, ErrPostNotFound
	}
	if post.Author != caller {
		return nil, ErrNotPostOwner
	}
	return post, nil
}

func (e *Engine) requireCommentOwner(caller [20]byte, commentID uint64) (*Comment, error) {
	comment, ok, err := e.state.SocialCommentGet(commentID)
	if err != nil {
		return nil, err
	}
	if !ok || comment == nil || comment.Deleted {
		return nil, ErrCommentNotFound
	}
	if comment.Author != caller {
		return nil, ErrNotCommentOwner
	}
	return comment, nil
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
