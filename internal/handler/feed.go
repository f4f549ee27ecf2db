package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/feed"
)

// FeedHandler serves the read-only pages: the four feeds and post detail.
type FeedHandler struct {
	feeds  *feed.Assembler
	render *Renderer
	logger *slog.Logger
}

func NewFeedHandler(feeds *feed.Assembler, render *Renderer, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, render: render, logger: logger}
}

// HandleIndex serves GET /. The feed may be up to the cache TTL old.
func (h *FeedHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	home, err := h.feeds.Home(r.Context(), pageNumber(r))
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	h.render.HTML(w, r, http.StatusOK, "index.html", View{Title: "Latest posts", Data: home})
}

// HandleGroup serves GET /group/{slug}/.
func (h *FeedHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.feeds.Group(r.Context(), chi.URLParam(r, "slug"), pageNumber(r))
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	h.render.HTML(w, r, http.StatusOK, "group_list.html", View{Title: group.Group.Title, Data: group})
}

// HandleProfile serves GET /profile/{username}/.
func (h *FeedHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.PrincipalFromContext(r.Context())
	profile, err := h.feeds.Profile(r.Context(), viewer, ok, chi.URLParam(r, "username"), pageNumber(r))
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	h.render.HTML(w, r, http.StatusOK, "profile.html", View{
		Title: "Profile of " + profile.Author.Username,
		Data:  profile,
	})
}

// HandleFollowIndex serves GET /follow/.
func (h *FeedHandler) HandleFollowIndex(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.PrincipalFromContext(r.Context())
	following, err := h.feeds.Following(r.Context(), viewer, ok, pageNumber(r))
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	h.render.HTML(w, r, http.StatusOK, "follow.html", View{Title: "Following", Data: following})
}

// HandlePostDetail serves GET /posts/{id}/.
func (h *FeedHandler) HandlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "post")
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	detail, err := h.feeds.Post(r.Context(), id)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	h.render.HTML(w, r, http.StatusOK, "post_detail.html", View{Title: detail.Post.String(), Data: detail})
}

// HandleNotFound renders the 404 page for unknown routes.
func (h *FeedHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.render.NotFound(w, r)
}
