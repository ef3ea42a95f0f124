package social

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"chainsphere/core/types"
)

type mockState struct {
	profiles   map[[20]byte]*Profile
	usernames  map[string][20]byte
	posts      map[uint64]*Post
	comments   map[uint64]*Comment
	postCmts   map[uint64][]uint64
	votes      map[string]VoteDirection
	voters     map[uint64][][20]byte
	likes      map[string]bool
	accounts   map[string]*types.Account
	userSeq    uint64
	postSeq    uint64
	commentSeq uint64
}

func newMockState() *mockState {
	return &mockState{
		profiles:  make(map[[20]byte]*Profile),
		usernames: make(map[string][20]byte),
		posts:     make(map[uint64]*Post),
		comments:  make(map[uint64]*Comment),
		postCmts:  make(map[uint64][]uint64),
		votes:     make(map[string]VoteDirection),
		voters:    make(map[uint64][][20]byte),
		likes:     make(map[string]bool),
		accounts:  make(map[string]*types.Account),
	}
}

func voteTestKey(postID uint64, voter [20]byte) string {
	return fmt.Sprintf("%d/%x", postID, voter)
}

func (m *mockState) SocialProfileGet(addr [20]byte) (*Profile, bool, error) {
	profile, ok := m.profiles[addr]
	if !ok {
		return nil, false, nil
	}
	return profile.Clone(), true, nil
}

func (m *mockState) SocialProfilePut(profile *Profile) error {
	m.profiles[profile.Address] = profile.Clone()
	return nil
}

func (m *mockState) SocialUsernameOwner(name string) ([20]byte, bool, error) {
	addr, ok := m.usernames[name]
	return addr, ok, nil
}

func (m *mockState) SocialUsernamePut(name string, addr [20]byte) error {
	m.usernames[name] = addr
	return nil
}

func (m *mockState) SocialUsernameDelete(name string) error {
	delete(m.usernames, name)
	return nil
}

func (m *mockState) SocialNextUserID() (uint64, error) {
	id := m.userSeq
	m.userSeq++
	return id, nil
}

func (m *mockState) SocialNextPostID() (uint64, error) {
	id := m.postSeq
	m.postSeq++
	return id, nil
}

func (m *mockState) SocialPostGet(id uint64) (*Post, bool, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, false, nil
	}
	return post.Clone(), true, nil
}

func (m *mockState) SocialPostPut(post *Post) error {
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *mockState) SocialNextCommentID() (uint64, error) {
	id := m.commentSeq
	m.commentSeq++
	return id, nil
}

func (m *mockState) SocialCommentGet(id uint64) (*Comment, bool, error) {
	comment, ok := m.comments[id]
	if !ok {
		return nil, false, nil
	}
	return comment.Clone(), true, nil
}

func (m *mockState) SocialCommentPut(comment *Comment) error {
	m.comments[comment.ID] = comment.Clone()
	return nil
}

func (m *mockState) SocialPostCommentsGet(postID uint64) ([]uint64, error) {
	return append([]uint64(nil), m.postCmts[postID]...), nil
}

func (m *mockState) SocialPostCommentsAppend(postID uint64, commentID uint64) error {
	m.postCmts[postID] = append(m.postCmts[postID], commentID)
	return nil
}

func (m *mockState) SocialVoteGet(postID uint64, voter [20]byte) (VoteDirection, bool, error) {
	dir, ok := m.votes[voteTestKey(postID, voter)]
	return dir, ok, nil
}

func (m *mockState) SocialVotePut(postID uint64, voter [20]byte, dir VoteDirection) error {
	m.votes[voteTestKey(postID, voter)] = dir
	return nil
}

func (m *mockState) SocialVotersAppend(postID uint64, voter [20]byte) error {
	m.voters[postID] = append(m.voters[postID], voter)
	return nil
}

func (m *mockState) SocialVotersGet(postID uint64) ([][20]byte, error) {
	return append([][20]byte(nil), m.voters[postID]...), nil
}

func (m *mockState) SocialCommentLikeGet(commentID uint64, addr [20]byte) (bool, error) {
	return m.likes[voteTestKey(commentID, addr)], nil
}

func (m *mockState) SocialCommentLikePut(commentID uint64, addr [20]byte) error {
	m.likes[voteTestKey(commentID, addr)] = true
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acc, ok := m.accounts[string(addr)]; ok {
		return acc.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	m.accounts[string(addr)] = account.Clone()
	return nil
}

type stubGate struct {
	required *big.Int
	calls    int
}

func (g *stubGate) Authorize(paid *big.Int, usdFee *big.Int) (*big.Int, error) {
	g.calls++
	if paid == nil || paid.Cmp(g.required) < 0 {
		return nil, errors.New("stub gate: insufficient payment")
	}
	return new(big.Int).Set(g.required), nil
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1700000000 })
	engine.SetOwner(addr(0xAA))
	engine.SetPoolAccount(addr(0xFE))
	return engine, state
}

func mustRegister(t *testing.T, engine *Engine, a [20]byte, name string) *Profile {
	t.Helper()
	profile, err := engine.Register(a, name, "", "")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return profile
}

func TestRegisterUniqueness(t *testing.T) {
	engine, _ := newTestEngine(t)

	alice := mustRegister(t, engine, addr(1), "Alice")
	if alice.DisplayName != "alice" {
		t.Fatalf("expected normalised name, got %q", alice.DisplayName)
	}
	if alice.ID != 0 {
		t.Fatalf("expected first user id 0, got %d", alice.ID)
	}

	if _, err := engine.Register(addr(2), "alice", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := engine.Register(addr(1), "other", "", ""); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := engine.Register(addr(3), "x", "", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	bob := mustRegister(t, engine, addr(2), "bob")
	if bob.ID != 1 {
		t.Fatalf("expected second user id 1, got %d", bob.ID)
	}
}

func TestUpdateProfileRename(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustRegister(t, engine, addr(1), "alice")
	mustRegister(t, engine, addr(2), "bob")

	if _, err := engine.UpdateProfile(addr(1), "bob", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken on rename collision, got %v", err)
	}
	if _, err := engine.UpdateProfile(addr(1), "alice2", "new bio", ""); err != nil {
		t.Fatalf("rename: %v", err)
	}
	// The old name is released and reclaimable.
	if _, err := engine.Register(addr(3), "alice", "", ""); err != nil {
		t.Fatalf("reclaim released name: %v", err)
	}
	if _, err := engine.UpdateProfile(addr(9), "ghost", "", ""); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestCreatePostAssignsMonotonicIDs(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustRegister(t, engine, addr(1), "alice")

	for want := uint64(0); want < 3; want++ {
		post, err := engine.CreatePost(addr(1), "hello", "")
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		if post.ID != want {
			t.Fatalf("expected post id %d, got %d", want, post.ID)
		}
	}
	if _, err := engine.CreatePost(addr(9), "nope", ""); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestVoteIntegrity(t *testing.T) {
	engine, state := newTestEngine(t)
	author, voter := addr(1), addr(2)
	mustRegister(t, engine, author, "alice")
	mustRegister(t, engine, voter, "bob")
	post, err := engine.CreatePost(author, "content", "")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := engine.Upvote(author, post.ID); !errors.Is(err, ErrSelfVote) {
		t.Fatalf("expected ErrSelfVote, got %v", err)
	}
	if stored := state.posts[post.ID]; stored.Upvotes != 0 || stored.Downvotes != 0 {
		t.Fatalf("self-vote mutated counters: %+v", stored)
	}

	updated, err := engine.Upvote(voter, post.ID)
	if err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if updated.Upvotes != 1 || updated.Score() != 1 {
		t.Fatalf("unexpected counters after upvote: %+v", updated)
	}

	// Second vote fails regardless of direction and leaves counters alone.
	if _, err := engine.Downvote(voter, post.ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if stored := state.posts[post.ID]; stored.Upvotes != 1 || stored.Downvotes != 0 {
		t.Fatalf("failed vote mutated counters: %+v", stored)
	}

	voted, err := engine.HasVoted(voter, post.ID)
	if err != nil || !voted {
		t.Fatalf("expected HasVoted true, got %v %v", voted, err)
	}
	voters, err := engine.PostVoters(post.ID)
	if err != nil || len(voters) != 1 || voters[0] != voter {
		t.Fatalf("unexpected voter log: %v %v", voters, err)
	}
}

func TestVoteOnDeletedPost(t *testing.T) {
	engine, _ := newTestEngine(t)
	author, voter := addr(1), addr(2)
	mustRegister(t, engine, author, "alice")
	mustRegister(t, engine, voter, "bob")
	post, _ := engine.CreatePost(author, "content", "")
	if err := engine.DeletePost(author, post.ID, nil); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := engine.Upvote(voter, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestFeeGatedEditAndDelete(t *testing.T) {
	engine, state := newTestEngine(t)
	gate := &stubGate{required: big.NewInt(1000)}
	engine.SetFeeGate(gate)
	engine.SetFees(big.NewInt(1), big.NewInt(2))
	author := addr(1)
	mustRegister(t, engine, author, "alice")
	post, _ := engine.CreatePost(author, "v1", "")

	if _, err := engine.EditPost(author, post.ID, "v2", "", big.NewInt(999)); err == nil {
		t.Fatal("expected underpaid edit to fail")
	}
	if stored := state.posts[post.ID]; stored.Content != "v1" {
		t.Fatalf("failed edit mutated content: %q", stored.Content)
	}

	if _, err := engine.EditPost(author, post.ID, "v2", "", big.NewInt(1500)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if stored := state.posts[post.ID]; stored.Content != "v2" {
		t.Fatalf("edit not applied: %q", stored.Content)
	}
	// Overpayment is kept in full: the pool is credited with what was paid.
	poolAddr := addr(0xFE)
	pool, _ := state.GetAccount(poolAddr[:])
	if pool == nil || pool.Balance.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("unexpected pool balance: %v", pool)
	}

	if _, err := engine.EditPost(addr(2), post.ID, "v3", "", big.NewInt(1500)); !errors.Is(err, ErrNotRegistered) && !errors.Is(err, ErrNotPostOwner) {
		t.Fatalf("expected ownership failure, got %v", err)
	}

	if err := engine.DeletePost(author, post.ID, big.NewInt(1000)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := engine.GetPost(post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected deleted post to be gone, got %v", err)
	}
}

func TestComments(t *testing.T) {
	engine, _ := newTestEngine(t)
	author, commenter := addr(1), addr(2)
	mustRegister(t, engine, author, "alice")
	mustRegister(t, engine, commenter, "bob")
	post, _ := engine.CreatePost(author, "content", "")

	first, err := engine.CreateComment(commenter, post.ID, "hi")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	second, err := engine.CreateComment(author, post.ID, "hello")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("expected global monotonic comment ids, got %d %d", first.ID, second.ID)
	}

	if _, err := engine.EditComment(author, first.ID, "x"); !errors.Is(err, ErrNotCommentOwner) {
		t.Fatalf("expected ErrNotCommentOwner, got %v", err)
	}
	if _, err := engine.EditComment(commenter, first.ID, "hi there"); err != nil {
		t.Fatalf("edit comment: %v", err)
	}

	liked, err := engine.LikeComment(author, first.ID)
	if err != nil || liked.Likes != 1 {
		t.Fatalf("like comment: %v %v", liked, err)
	}
	if _, err := engine.LikeComment(author, first.ID); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}

	if err := engine.DeleteComment(commenter, first.ID, nil); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	comments, err := engine.PostComments(post.ID)
	if err != nil {
		t.Fatalf("post comments: %v", err)
	}
	if len(comments) != 1 || comments[0].ID != second.ID {
		t.Fatalf("unexpected surviving comments: %+v", comments)
	}
}

func TestPoolBalanceOwnerOnly(t *testing.T) {
	engine, state := newTestEngine(t)
	poolAddr := addr(0xFE)
	state.accounts[string(poolAddr[:])] = &types.Account{Balance: big.NewInt(42)}

	if _, err := engine.PoolBalance(addr(1)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	balance, err := engine.PoolBalance(addr(0xAA))
	if err != nil || balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected balance: %v %v", balance, err)
	}
}
