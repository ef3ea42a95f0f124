package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"chainsphere/native/feegate"
	"chainsphere/native/rewards"
	"chainsphere/native/social"
)

// Server exposes the engine operations over HTTP. The caller address travels
// with every mutating request, mirroring the invocation semantics of the
// ledger: there is no session, only per-invocation identity.
type Server struct {
	social       *social.Engine
	rewards      *rewards.Engine
	gate         *feegate.Gate
	editFeeUSD   *big.Int
	deleteFeeUSD *big.Int
	limiter      *rate.Limiter
	metrics      http.Handler
	logger       *slog.Logger
}

// NewServer wires the engines into an HTTP server.
func NewServer(socialEngine *social.Engine, rewardEngine *rewards.Engine, gate *feegate.Gate, editFeeUSD, deleteFeeUSD *big.Int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		social:       socialEngine,
		rewards:      rewardEngine,
		gate:         gate,
		editFeeUSD:   copyBig(editFeeUSD),
		deleteFeeUSD: copyBig(deleteFeeUSD),
		limiter:      rate.NewLimiter(rate.Limit(50), 100),
		logger:       logger,
	}
}

// SetRateLimit overrides the default request budget.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetMetricsHandler mounts a /metrics endpoint.
func (s *Server) SetMetricsHandler(handler http.Handler) { s.metrics = handler }

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.throttle)

	r.Route("/v1/social", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/profile", s.handleUpdateProfile)
		r.Get("/profiles/{addr}", s.handleGetProfile)
		r.Post("/posts", s.handleCreatePost)
		r.Post("/posts/edit", s.handleEditPost)
		r.Post("/posts/delete", s.handleDeletePost)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Get("/posts/{id}/comments", s.handlePostComments)
		r.Get("/posts/{id}/voters", s.handlePostVoters)
		r.Post("/votes", s.handleVote)
		r.Get("/votes/{id}/{addr}", s.handleHasVoted)
		r.Post("/comments", s.handleCreateComment)
		r.Post("/comments/edit", s.handleEditComment)
		r.Post("/comments/delete", s.handleDeleteComment)
		r.Post("/comments/like", s.handleLikeComment)
	})

	r.Route("/v1/rewards", func(r chi.Router) {
		r.Get("/eligible", s.handleEligible)
		r.Get("/trending", s.handleTrending)
		r.Get("/winners", s.handleWinners)
		r.Get("/upkeep", s.handleCheckUpkeep)
		r.Post("/upkeep", s.handlePerformUpkeep)
		r.Post("/fulfill", s.handleFulfill)
	})

	r.Get("/v1/fees/quote", s.handleFeeQuote)
	r.Get("/v1/pool/balance", s.handlePoolBalance)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("rpc: encode response failed", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, social.ErrNotRegistered),
		errors.Is(err, social.ErrPostNotFound),
		errors.Is(err, social.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrUsernameTaken),
		errors.Is(err, social.ErrAlreadyRegistered),
		errors.Is(err, social.ErrAlreadyVoted),
		errors.Is(err, social.ErrAlreadyLiked),
		errors.Is(err, rewards.ErrRoundPending):
		return http.StatusConflict
	case errors.Is(err, social.ErrNotPostOwner),
		errors.Is(err, social.ErrNotCommentOwner),
		errors.Is(err, social.ErrNotOwner),
		errors.Is(err, social.ErrSelfVote):
		return http.StatusForbidden
	case errors.Is(err, feegate.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, rewards.ErrUpkeepNotDue),
		errors.Is(err, social.ErrInvalidUsername):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

var errInvalidAddress = errors.New("rpc: invalid address")

func parseAddress(raw string) ([20]byte, error) {
	if !common.IsHexAddress(raw) {
		return [20]byte{}, errInvalidAddress
	}
	return [20]byte(common.HexToAddress(raw)), nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, errors.New("rpc: invalid amount")
	}
	return value, nil
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func hexAddr(addr [20]byte) string {
	return common.Address(addr).Hex()
}
