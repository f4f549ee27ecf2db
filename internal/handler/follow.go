package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yatube/yatube/internal/service"
)

// FollowHandler subscribes and unsubscribes the current user. Both
// actions are idempotent and always land on the author's profile.
type FollowHandler struct {
	follows *service.FollowService
	render  *Renderer
	logger  *slog.Logger
}

func NewFollowHandler(follows *service.FollowService, render *Renderer, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, render: render, logger: logger}
}

// HandleFollow serves /profile/{username}/follow/.
func (h *FollowHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	username := chi.URLParam(r, "username")
	if _, err := h.follows.Follow(r.Context(), p, username); err != nil {
		h.render.Fail(w, r, err, profileURL(username))
		return
	}
	redirect(w, r, profileURL(username))
}

// HandleUnfollow serves /profile/{username}/unfollow/.
func (h *FollowHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	username := chi.URLParam(r, "username")
	if _, err := h.follows.Unfollow(r.Context(), p, username); err != nil {
		h.render.Fail(w, r, err, profileURL(username))
		return
	}
	redirect(w, r, profileURL(username))
}
