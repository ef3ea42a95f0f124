package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"chainsphere/core/types"
	"chainsphere/native/rewards"
	"chainsphere/native/social"
	"chainsphere/storage"
)

// Manager persists every engine record through a key-value database. Records
// are JSON-encoded under stable prefixes; sequence counters hand out the
// monotonic, never-reused ids. One Manager backs all engines of a node, so
// the serialized invocation stream sees a single consistent store.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// nextSeq returns the current counter value and advances it, so ids start at
// zero and are never reused.
func (m *Manager) nextSeq(key string) (uint64, error) {
	var current uint64
	if _, err := m.getJSON([]byte(key), &current); err != nil {
		return 0, err
	}
	if err := m.putJSON([]byte(key), current+1); err != nil {
		return 0, err
	}
	return current, nil
}

func (m *Manager) seqValue(key string) (uint64, error) {
	var current uint64
	if _, err := m.getJSON([]byte(key), &current); err != nil {
		return 0, err
	}
	return current, nil
}

func addrKey(prefix string, addr [20]byte) []byte {
	return []byte(prefix + hex.EncodeToString(addr[:]))
}

// --- accounts ---

// GetAccount loads the account stored for the address, or nil when absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.getJSON([]byte(accountPrefix+hex.EncodeToString(addr)), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return account, nil
}

// PutAccount stores the account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	return m.putJSON([]byte(accountPrefix+hex.EncodeToString(addr)), account)
}

// --- social: profiles ---

// SocialProfileGet loads the profile registered for the address.
func (m *Manager) SocialProfileGet(addr [20]byte) (*social.Profile, bool, error) {
	profile := new(social.Profile)
	ok, err := m.getJSON(addrKey(socialUserPrefix, addr), profile)
	if err != nil || !ok {
		return nil, false, err
	}
	return profile, true, nil
}

// SocialProfilePut stores the profile under its address.
func (m *Manager) SocialProfilePut(profile *social.Profile) error {
	if profile == nil {
		return nil
	}
	return m.putJSON(addrKey(socialUserPrefix, profile.Address), profile)
}

// SocialUsernameOwner resolves the address owning a normalised username.
func (m *Manager) SocialUsernameOwner(name string) ([20]byte, bool, error) {
	var addr [20]byte
	var encoded string
	ok, err := m.getJSON([]byte(socialUsernamePrefix+name), &encoded)
	if err != nil || !ok {
		return addr, false, err
	}
	if encoded == "" {
		// Released name tombstone.
		return addr, false, nil
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) != len(addr) {
		return addr, false, fmt.Errorf("state: corrupt username index for %q", name)
	}
	copy(addr[:], raw)
	return addr, true, nil
}

// SocialUsernamePut claims the username for the address.
func (m *Manager) SocialUsernamePut(name string, addr [20]byte) error {
	return m.putJSON([]byte(socialUsernamePrefix+name), hex.EncodeToString(addr[:]))
}

// SocialUsernameDelete releases the username.
func (m *Manager) SocialUsernameDelete(name string) error {
	// Tombstone with an empty value: the KV surface is append-mostly and a
	// released name is immediately reclaimable via SocialUsernamePut.
	return m.putJSON([]byte(socialUsernamePrefix+name), "")
}

// SocialNextUserID advances the user id sequence.
func (m *Manager) SocialNextUserID() (uint64, error) {
	return m.nextSeq(socialUserSeqKey)
}

// --- social: posts ---

// SocialNextPostID advances the post id sequence.
func (m *Manager) SocialNextPostID() (uint64, error) {
	return m.nextSeq(socialPostSeqKey)
}

// SocialPostCount returns the number of post ids handed out so far.
func (m *Manager) SocialPostCount() (uint64, error) {
	return m.seqValue(socialPostSeqKey)
}

// SocialPostGet loads a post by id, tombstones included.
func (m *Manager) SocialPostGet(id uint64) (*social.Post, bool, error) {
	post := new(social.Post)
	ok, err := m.getJSON(idKey(socialPostPrefix, id), post)
	if err != nil || !ok {
		return nil, false, err
	}
	return post, true, nil
}

// SocialPostPut stores the post under its id.
func (m *Manager) SocialPostPut(post *social.Post) error {
	if post == nil {
		return nil
	}
	return m.putJSON(idKey(socialPostPrefix, post.ID), post)
}

// --- social: comments ---

// SocialNextCommentID advances the global comment id sequence.
func (m *Manager) SocialNextCommentID() (uint64, error) {
	return m.nextSeq(socialCommentSeqKey)
}

// SocialCommentGet loads a comment by id, tombstones included.
func (m *Manager) SocialCommentGet(id uint64) (*social.Comment, bool, error) {
	comment := new(social.Comment)
	ok, err := m.getJSON(idKey(socialCommentPrefix, id), comment)
	if err != nil || !ok {
		return nil, false, err
	}
	return comment, true, nil
}

// SocialCommentPut stores the comment under its id.
func (m *Manager) SocialCommentPut(comment *social.Comment) error {
	if comment == nil {
		return nil
	}
	return m.putJSON(idKey(socialCommentPrefix, comment.ID), comment)
}

// SocialPostCommentsGet returns the comment ids filed under a post.
func (m *Manager) SocialPostCommentsGet(postID uint64) ([]uint64, error) {
	var ids []uint64
	if _, err := m.getJSON(idKey(socialPostCommentsPrefix, postID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SocialPostCommentsAppend files a comment id under its post.
func (m *Manager) SocialPostCommentsAppend(postID uint64, commentID uint64) error {
	ids, err := m.SocialPostCommentsGet(postID)
	if err != nil {
		return err
	}
	return m.putJSON(idKey(socialPostCommentsPrefix, postID), append(ids, commentID))
}

// --- social: votes ---

func voteKey(postID uint64, voter [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%016x/%s", socialVotePrefix, postID, hex.EncodeToString(voter[:])))
}

// SocialVoteGet loads the vote record for the (post, voter) pair.
func (m *Manager) SocialVoteGet(postID uint64, voter [20]byte) (social.VoteDirection, bool, error) {
	var dir social.VoteDirection
	ok, err := m.getJSON(voteKey(postID, voter), &dir)
	if err != nil || !ok {
		return 0, false, err
	}
	return dir, true, nil
}

// SocialVotePut writes the vote record for the (post, voter) pair.
func (m *Manager) SocialVotePut(postID uint64, voter [20]byte, dir social.VoteDirection) error {
	return m.putJSON(voteKey(postID, voter), dir)
}

// SocialVotersGet returns the per-post voter audit log in vote order.
func (m *Manager) SocialVotersGet(postID uint64) ([][20]byte, error) {
	var encoded []string
	if _, err := m.getJSON(idKey(socialVotersPrefix, postID), &encoded); err != nil {
		return nil, err
	}
	voters := make([][20]byte, 0, len(encoded))
	for _, entry := range encoded {
		raw, err := hex.DecodeString(entry)
		if err != nil || len(raw) != 20 {
			return nil, fmt.Errorf("state: corrupt voter log for post %d", postID)
		}
		var addr [20]byte
		copy(addr[:], raw)
		voters = append(voters, addr)
	}
	return voters, nil
}

// SocialVotersAppend appends an address to the per-post voter audit log.
func (m *Manager) SocialVotersAppend(postID uint64, voter [20]byte) error {
	var encoded []string
	if _, err := m.getJSON(idKey(socialVotersPrefix, postID), &encoded); err != nil {
		return err
	}
	encoded = append(encoded, hex.EncodeToString(voter[:]))
	return m.putJSON(idKey(socialVotersPrefix, postID), encoded)
}

// --- social: comment likes ---

func commentLikeKey(commentID uint64, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%016x/%s", socialCommentLikePrefix, commentID, hex.EncodeToString(addr[:])))
}

// SocialCommentLikeGet reports whether the address already liked the comment.
func (m *Manager) SocialCommentLikeGet(commentID uint64, addr [20]byte) (bool, error) {
	var liked bool
	ok, err := m.getJSON(commentLikeKey(commentID, addr), &liked)
	if err != nil {
		return false, err
	}
	return ok && liked, nil
}

// SocialCommentLikePut records a like for the (comment, address) pair.
func (m *Manager) SocialCommentLikePut(commentID uint64, addr [20]byte) error {
	return m.putJSON(commentLikeKey(commentID, addr), true)
}

// EligiblePostIDs scans posts in creation order and returns the live ids
// whose net score meets the threshold. The set is derived, never cached, so
// it reflects every vote cast up to this invocation.
func (m *Manager) EligiblePostIDs(minScore int64) ([]uint64, error) {
	count, err := m.SocialPostCount()
	if err != nil {
		return nil, err
	}
	eligible := make([]uint64, 0)
	for id := uint64(0); id < count; id++ {
		post, ok, err := m.SocialPostGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || post == nil || post.Deleted {
			continue
		}
		if post.Score() >= minScore {
			eligible = append(eligible, id)
		}
	}
	return eligible, nil
}

// --- rewards ---

// RewardsWindowGet loads the rolling eligibility window.
func (m *Manager) RewardsWindowGet() (*rewards.Window, bool, error) {
	window := new(rewards.Window)
	ok, err := m.getJSON([]byte(rewardsWindowKey), window)
	if err != nil || !ok {
		return nil, false, err
	}
	return window, true, nil
}

// RewardsWindowPut stores the rolling eligibility window.
func (m *Manager) RewardsWindowPut(window *rewards.Window) error {
	if window == nil {
		return nil
	}
	return m.putJSON([]byte(rewardsWindowKey), window)
}

type storedPendingRound struct {
	Present bool           `json:"present"`
	Round   *rewards.Round `json:"round,omitempty"`
}

// RewardsPendingRoundGet loads the round awaiting randomness, if any.
func (m *Manager) RewardsPendingRoundGet() (*rewards.Round, bool, error) {
	stored := new(storedPendingRound)
	ok, err := m.getJSON([]byte(rewardsPendingRoundKey), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	if !stored.Present || stored.Round == nil {
		return nil, false, nil
	}
	return stored.Round, true, nil
}

// RewardsPendingRoundPut records the round awaiting randomness.
func (m *Manager) RewardsPendingRoundPut(round *rewards.Round) error {
	return m.putJSON([]byte(rewardsPendingRoundKey), &storedPendingRound{Present: true, Round: round})
}

// RewardsPendingRoundClear removes the pending round marker.
func (m *Manager) RewardsPendingRoundClear() error {
	return m.putJSON([]byte(rewardsPendingRoundKey), &storedPendingRound{})
}

// RewardsNextRoundID advances the round id sequence.
func (m *Manager) RewardsNextRoundID() (uint64, error) {
	return m.nextSeq(rewardsRoundSeqKey)
}

// RewardsRoundArchive stores a finalized round for querying.
func (m *Manager) RewardsRoundArchive(round *rewards.Round) error {
	if round == nil {
		return nil
	}
	return m.putJSON(idKey(rewardsRoundPrefix, round.ID), round)
}

// RewardsRoundGet loads an archived round by id.
func (m *Manager) RewardsRoundGet(id uint64) (*rewards.Round, bool, error) {
	round := new(rewards.Round)
	ok, err := m.getJSON(idKey(rewardsRoundPrefix, id), round)
	if err != nil || !ok {
		return nil, false, err
	}
	return round, true, nil
}

// RewardsWinnersGet loads the recent-winners history, oldest first.
func (m *Manager) RewardsWinnersGet() ([]rewards.Winner, error) {
	var winners []rewards.Winner
	if _, err := m.getJSON([]byte(rewardsWinnersKey), &winners); err != nil {
		return nil, err
	}
	return winners, nil
}

// RewardsWinnersPut stores the recent-winners history.
func (m *Manager) RewardsWinnersPut(winners []rewards.Winner) error {
	return m.putJSON([]byte(rewardsWinnersKey), winners)
}
