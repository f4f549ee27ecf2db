package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/feed"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/service"
)

// PostHandler serves the write side of posts and comments. Every route is
// mounted behind auth.RequireLogin.
type PostHandler struct {
	posts         *service.PostService
	comments      *service.CommentService
	groups        *service.GroupService
	feeds         *feed.Assembler
	render        *Renderer
	maxImageBytes int64
	logger        *slog.Logger
}

func NewPostHandler(
	posts *service.PostService,
	comments *service.CommentService,
	groups *service.GroupService,
	feeds *feed.Assembler,
	render *Renderer,
	maxImageBytes int64,
	logger *slog.Logger,
) *PostHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &PostHandler{
		posts:         posts,
		comments:      comments,
		groups:        groups,
		feeds:         feeds,
		render:        render,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// postFormView is the view-model of create_post.html.
type postFormView struct {
	Editing bool
	Action  string
	Groups  []model.Group
	Image   string
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// principal returns the request's user. Routes are behind RequireLogin, so
// a missing principal is turned into an Unauthorized error.
func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperror.Unauthorized("login required")
	}
	return p, nil
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, view postFormView, form Form) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}
	view.Groups = groups

	title := "New post"
	if view.Editing {
		title = "Edit post"
	}
	h.render.HTML(w, r, http.StatusOK, "create_post.html", View{Title: title, Form: form, Data: view})
}

// HandleCreateForm serves GET /create/.
func (h *PostHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, postFormView{Action: "/create/"}, Form{})
}

// HandleCreate serves POST /create/ and redirects to the author's profile.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	view := postFormView{Action: "/create/"}
	in, form, err := decodePostForm(w, r, h.maxImageBytes)
	if err == nil {
		_, err = h.posts.Create(r.Context(), p, in)
	}
	if errors.Is(err, apperror.ErrValidation) {
		h.renderForm(w, r, view, withErrors(form, err))
		return
	}
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	redirect(w, r, profileURL(p.Username))
}

// HandleEditForm serves GET /posts/{id}/edit/. Anyone but the author is
// sent back to the post with a notice.
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndPost(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetForEdit(r.Context(), p, id)
	if err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	form := Form{Values: map[string]string{"text": post.Text}}
	if post.GroupID != nil {
		form.Values["group"] = strconv.FormatInt(*post.GroupID, 10)
	}
	h.renderForm(w, r, editView(post), form)
}

// HandleEdit serves POST /posts/{id}/edit/ and redirects to the post.
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndPost(w, r)
	if !ok {
		return
	}

	// Ownership is checked before the body is read.
	current, err := h.posts.GetForEdit(r.Context(), p, id)
	if err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	in, form, err := decodePostForm(w, r, h.maxImageBytes)
	if err == nil {
		_, err = h.posts.Edit(r.Context(), p, id, in)
	}
	if errors.Is(err, apperror.ErrValidation) {
		h.renderForm(w, r, editView(current), withErrors(form, err))
		return
	}
	if err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	redirect(w, r, postURL(id))
}

func editView(post *model.Post) postFormView {
	return postFormView{
		Editing: true,
		Action:  postURL(post.ID) + "edit/",
		Image:   post.Image,
	}
}

// HandleDelete serves /posts/{id}/delete/ and redirects home.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndPost(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), p, id); err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	redirect(w, r, "/")
}

// HandleAddComment serves POST /posts/{id}/comment/. An invalid comment
// re-renders the post page with the error.
func (h *PostHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndPost(w, r)
	if !ok {
		return
	}

	in, form, err := decodeCommentForm(r)
	if err == nil {
		_, err = h.comments.Add(r.Context(), p, id, in)
	}
	if errors.Is(err, apperror.ErrValidation) {
		detail, derr := h.feeds.Post(r.Context(), id)
		if derr != nil {
			h.render.Fail(w, r, derr, "/")
			return
		}
		h.render.HTML(w, r, http.StatusOK, "post_detail.html", View{
			Title: detail.Post.String(),
			Form:  withErrors(form, err),
			Data:  detail,
		})
		return
	}
	if err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	redirect(w, r, postURL(id))
}

// HandleDeleteComment serves /posts/{id}/comment/{cid}/delete/.
func (h *PostHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndPost(w, r)
	if !ok {
		return
	}
	commentID, err := pathID(r, "cid", "comment")
	if err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	if err := h.comments.Delete(r.Context(), p, id, commentID); err != nil {
		h.render.Fail(w, r, err, postURL(id))
		return
	}

	redirect(w, r, postURL(id))
}

func (h *PostHandler) principalAndPost(w http.ResponseWriter, r *http.Request) (auth.Principal, int64, bool) {
	p, err := principal(r)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return auth.Principal{}, 0, false
	}
	id, err := pathID(r, "id", "post")
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return auth.Principal{}, 0, false
	}
	return p, id, true
}
