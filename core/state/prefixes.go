package state

import "fmt"

const (
	accountPrefix = "accounts/"

	socialUserPrefix         = "social/users/"
	socialUserSeqKey         = "social/users/seq"
	socialUsernamePrefix     = "social/usernames/"
	socialPostSeqKey         = "social/posts/seq"
	socialPostPrefix         = "social/posts/"
	socialCommentSeqKey      = "social/comments/seq"
	socialCommentPrefix      = "social/comments/"
	socialPostCommentsPrefix = "social/postcomments/"
	socialVotePrefix         = "social/votes/"
	socialVotersPrefix       = "social/voters/"
	socialCommentLikePrefix  = "social/commentlikes/"

	rewardsWindowKey       = "rewards/window"
	rewardsPendingRoundKey = "rewards/round/pending"
	rewardsRoundSeqKey     = "rewards/rounds/seq"
	rewardsRoundPrefix     = "rewards/rounds/"
	rewardsWinnersKey      = "rewards/winners"
)

func idKey(prefix string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", prefix, id))
}
