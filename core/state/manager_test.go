package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"chainsphere/core/types"
	"chainsphere/native/rewards"
	"chainsphere/native/social"
	"chainsphere/oracle"
	"chainsphere/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func TestSequencesStartAtZero(t *testing.T) {
	manager := newTestManager(t)

	for want := uint64(0); want < 3; want++ {
		id, err := manager.SocialNextPostID()
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	count, err := manager.SocialPostCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	id, err := manager.SocialNextUserID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)
	id, err = manager.RewardsNextRoundID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)
}

func TestProfileRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(1)

	_, ok, err := manager.SocialProfileGet(addr)
	require.NoError(t, err)
	require.False(t, ok)

	profile := &social.Profile{ID: 0, Address: addr, DisplayName: "alice", Bio: "hi", CreatedAt: 100}
	require.NoError(t, manager.SocialProfilePut(profile))

	loaded, ok, err := manager.SocialProfileGet(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, profile.DisplayName, loaded.DisplayName)
	require.Equal(t, profile.Address, loaded.Address)
}

func TestUsernameClaimReleaseReclaim(t *testing.T) {
	manager := newTestManager(t)
	alice, bob := testAddr(1), testAddr(2)

	_, ok, err := manager.SocialUsernameOwner("alice")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.SocialUsernamePut("alice", alice))
	owner, ok, err := manager.SocialUsernameOwner("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, alice, owner)

	require.NoError(t, manager.SocialUsernameDelete("alice"))
	_, ok, err = manager.SocialUsernameOwner("alice")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.SocialUsernamePut("alice", bob))
	owner, ok, err = manager.SocialUsernameOwner("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bob, owner)
}

func TestVoteRecordsAndVoterLog(t *testing.T) {
	manager := newTestManager(t)
	voter := testAddr(3)

	_, ok, err := manager.SocialVoteGet(0, voter)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.SocialVotePut(0, voter, social.VoteUp))
	dir, ok, err := manager.SocialVoteGet(0, voter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, social.VoteUp, dir)

	require.NoError(t, manager.SocialVotersAppend(0, voter))
	require.NoError(t, manager.SocialVotersAppend(0, testAddr(4)))
	voters, err := manager.SocialVotersGet(0)
	require.NoError(t, err)
	require.Equal(t, [][20]byte{voter, testAddr(4)}, voters)

	// Records are keyed per post: post 1 is untouched.
	_, ok, err = manager.SocialVoteGet(1, voter)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEligiblePostIDsOrderingAndFilters(t *testing.T) {
	manager := newTestManager(t)

	put := func(upvotes, downvotes uint64, deleted bool) uint64 {
		id, err := manager.SocialNextPostID()
		require.NoError(t, err)
		require.NoError(t, manager.SocialPostPut(&social.Post{
			ID:        id,
			Author:    testAddr(1),
			Content:   "post",
			Upvotes:   upvotes,
			Downvotes: downvotes,
			Deleted:   deleted,
		}))
		return id
	}

	put(5, 0, false)  // id 0: eligible
	put(2, 0, false)  // id 1: below threshold
	put(9, 3, false)  // id 2: net 6, eligible
	put(10, 0, true)  // id 3: tombstoned
	put(6, 1, false)  // id 4: eligible

	eligible, err := manager.EligiblePostIDs(5)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 2, 4}, eligible)

	// Raising the bar shrinks the set on the next derivation.
	eligible, err = manager.EligiblePostIDs(6)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, eligible)
}

func TestPendingRoundLifecycle(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.RewardsPendingRoundGet()
	require.NoError(t, err)
	require.False(t, ok)

	var requestID oracle.RequestID
	requestID[0] = 0xCC
	round := &rewards.Round{
		ID:        0,
		State:     rewards.RoundStateAwaitingRandomness,
		Pool:      []uint64{1, 2, 3},
		RequestID: requestID,
		StartedAt: 500,
	}
	require.NoError(t, manager.RewardsPendingRoundPut(round))

	loaded, ok, err := manager.RewardsPendingRoundGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, round.Pool, loaded.Pool)
	require.Equal(t, requestID, loaded.RequestID)

	require.NoError(t, manager.RewardsPendingRoundClear())
	_, ok, err = manager.RewardsPendingRoundGet()
	require.NoError(t, err)
	require.False(t, ok)

	round.State = rewards.RoundStateFinalized
	require.NoError(t, manager.RewardsRoundArchive(round))
	archived, ok, err := manager.RewardsRoundGet(round.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rewards.RoundStateFinalized, archived.State)
}

func TestWinnersRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	winners, err := manager.RewardsWinnersGet()
	require.NoError(t, err)
	require.Empty(t, winners)

	history := []rewards.Winner{
		{RoundID: 0, PostID: 4, Word: "7", DecidedAt: 100},
		{RoundID: 1, PostID: 9, Word: "11", DecidedAt: 200},
	}
	require.NoError(t, manager.RewardsWinnersPut(history))
	winners, err = manager.RewardsWinnersGet()
	require.NoError(t, err)
	require.Equal(t, history, winners)
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(7)

	account, err := manager.GetAccount(addr[:])
	require.NoError(t, err)
	require.Nil(t, account)

	require.NoError(t, manager.PutAccount(addr[:], &types.Account{Nonce: 2, Balance: big.NewInt(500)}))
	account, err = manager.GetAccount(addr[:])
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, uint64(2), account.Nonce)
	require.Zero(t, account.Balance.Cmp(big.NewInt(500)))
}
