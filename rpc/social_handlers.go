package rpc

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chainsphere/native/social"
)

type registerParams struct {
	Caller      string `json:"caller"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	ImageHash   string `json:"imageHash"`
}

type profileResult struct {
	ID          uint64 `json:"id"`
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	ImageHash   string `json:"imageHash"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

func profileToResult(p *social.Profile) profileResult {
	return profileResult{
		ID:          p.ID,
		Address:     hexAddr(p.Address),
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		ImageHash:   p.ImageHash,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type postResult struct {
	ID        uint64 `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	ImageHash string `json:"imageHash"`
	CreatedAt int64  `json:"createdAt"`
	Upvotes   uint64 `json:"upvotes"`
	Downvotes uint64 `json:"downvotes"`
	Score     int64  `json:"score"`
}

func postToResult(p *social.Post) postResult {
	return postResult{
		ID:        p.ID,
		Author:    hexAddr(p.Author),
		Content:   p.Content,
		ImageHash: p.ImageHash,
		CreatedAt: p.CreatedAt,
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		Score:     p.Score(),
	}
}

type commentResult struct {
	ID        uint64 `json:"id"`
	PostID    uint64 `json:"postId"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	Likes     uint64 `json:"likes"`
}

func commentToResult(c *social.Comment) commentResult {
	return commentResult{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    hexAddr(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Likes:     c.Likes,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var params registerParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	profile, err := s.social.Register(caller, params.DisplayName, params.Bio, params.ImageHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, profileToResult(profile))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var params registerParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	profile, err := s.social.UpdateProfile(caller, params.DisplayName, params.Bio, params.ImageHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profileToResult(profile))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	profile, err := s.social.GetProfile(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profileToResult(profile))
}

type createPostParams struct {
	Caller    string `json:"caller"`
	Content   string `json:"content"`
	ImageHash string `json:"imageHash"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var params createPostParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	post, err := s.social.CreatePost(caller, params.Content, params.ImageHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, postToResult(post))
}

type editPostParams struct {
	Caller    string `json:"caller"`
	PostID    uint64 `json:"postId"`
	Content   string `json:"content"`
	ImageHash string `json:"imageHash"`
	Paid      string `json:"paid"`
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	var params editPostParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	paid, err := parseAmount(params.Paid)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	post, err := s.social.EditPost(caller, params.PostID, params.Content, params.ImageHash, paid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, postToResult(post))
}

type deletePostParams struct {
	Caller string `json:"caller"`
	PostID uint64 `json:"postId"`
	Paid   string `json:"paid"`
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	var params deletePostParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	paid, err := parseAmount(params.Paid)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.social.DeletePost(caller, params.PostID, paid); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid post id"})
		return
	}
	post, err := s.social.GetPost(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, postToResult(post))
}

type voteParams struct {
	Caller    string `json:"caller"`
	PostID    uint64 `json:"postId"`
	Direction string `json:"direction"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var params voteParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	dir, err := social.ParseVoteDirection(params.Direction)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	post, err := s.social.CastVote(caller, params.PostID, dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, postToResult(post))
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid post id"})
		return
	}
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	voted, err := s.social.HasVoted(addr, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"hasVoted": voted})
}

func (s *Server) handlePostVoters(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid post id"})
		return
	}
	voters, err := s.social.PostVoters(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	encoded := make([]string, 0, len(voters))
	for _, voter := range voters {
		encoded = append(encoded, hexAddr(voter))
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"voters": encoded})
}

type createCommentParams struct {
	Caller  string `json:"caller"`
	PostID  uint64 `json:"postId"`
	Content string `json:"content"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var params createCommentParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	comment, err := s.social.CreateComment(caller, params.PostID, params.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, commentToResult(comment))
}

type editCommentParams struct {
	Caller    string `json:"caller"`
	CommentID uint64 `json:"commentId"`
	Content   string `json:"content"`
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	var params editCommentParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	comment, err := s.social.EditComment(caller, params.CommentID, params.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, commentToResult(comment))
}

type deleteCommentParams struct {
	Caller    string `json:"caller"`
	CommentID uint64 `json:"commentId"`
	Paid      string `json:"paid"`
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	var params deleteCommentParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	paid, err := parseAmount(params.Paid)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.social.DeleteComment(caller, params.CommentID, paid); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type likeCommentParams struct {
	Caller    string `json:"caller"`
	CommentID uint64 `json:"commentId"`
}

func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	var params likeCommentParams
	if err := decode(r, &params); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	comment, err := s.social.LikeComment(caller, params.CommentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, commentToResult(comment))
}

func (s *Server) handlePostComments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid post id"})
		return
	}
	comments, err := s.social.PostComments(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := make([]commentResult, 0, len(comments))
	for _, comment := range comments {
		results = append(results, commentToResult(comment))
	}
	s.writeJSON(w, http.StatusOK, results)
}
