package rpc

import (
	"math/big"
	"net/http"
	"strings"
	"time"

	"chainsphere/oracle"
)

func (s *Server) handleEligible(w http.ResponseWriter, r *http.Request) {
	ids, err := s.rewards.EligiblePostIDs()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]uint64{"postIds": ids})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	ids, err := s.rewards.RecentTrending()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]uint64{"postIds": ids})
}

type winnerResult struct {
	RoundID   uint64 `json:"roundId"`
	PostID    uint64 `json:"postId"`
	DecidedAt int64  `json:"decidedAt"`
}

func (s *Server) handleWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := s.rewards.RecentWinners()
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := make([]winnerResult, 0, len(winners))
	for _, winner := range winners {
		results = append(results, winnerResult{
			RoundID:   winner.RoundID,
			PostID:    winner.PostID,
			DecidedAt: winner.DecidedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleCheckUpkeep(w http.ResponseWriter, r *http.Request) {
	due, err := s.rewards.CheckDue(time.Now().Unix())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"upkeepNeeded": due})
}

type performUpkeepResult struct {
	RoundID   uint64   `json:"roundId"`
	PoolSize  int      `json:"poolSize"`
	Pool      []uint64 `json:"pool"`
	RequestID string   `json:"requestId"`
}

func (s *Server) handlePerformUpkeep(w http.ResponseWriter, r *http.Request) {
	round, err := s.rewards.BeginRound(time.Now().Unix())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, performUpkeepResult{
		RoundID:   round.ID,
		PoolSize:  len(round.Pool),
		Pool:      round.Pool,
		RequestID: round.RequestID.String(),
	})
}

type fulfillParams struct {
	RequestID string   `json:"requestId"`
	Words     []string `json:"words"`
}

// handleFulfill is the randomness-delivery callback. Stale or duplicate
// deliveries return 200 with matched=false: they are not errors, just
// ignored.
func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var params fulfillParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	requestID, err := oracle.ParseRequestID(params.RequestID)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	words := make([]*big.Int, 0, len(params.Words))
	for _, raw := range params.Words {
		word, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid random word"})
			return
		}
		words = append(words, word)
	}
	winner, matched, err := s.rewards.Fulfill(requestID, words)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !matched {
		s.writeJSON(w, http.StatusOK, map[string]bool{"matched": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"matched": true,
		"winner":  winnerResult{RoundID: winner.RoundID, PostID: winner.PostID, DecidedAt: winner.DecidedAt},
	})
}

type feeQuoteResult struct {
	Action string `json:"action"`
	USDFee string `json:"usdFee"`
	Native string `json:"native"`
}

func (s *Server) handleFeeQuote(w http.ResponseWriter, r *http.Request) {
	action := strings.ToLower(r.URL.Query().Get("action"))
	var usdFee *big.Int
	switch action {
	case "edit":
		usdFee = s.editFeeUSD
	case "delete":
		usdFee = s.deleteFeeUSD
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "action must be edit or delete"})
		return
	}
	native, err := s.gate.Quote(usdFee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, feeQuoteResult{Action: action, USDFee: usdFee.String(), Native: native.String()})
}

func (s *Server) handlePoolBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := parseAddress(r.URL.Query().Get("caller"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	balance, err := s.social.PoolBalance(caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}
