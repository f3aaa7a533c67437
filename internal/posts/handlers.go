package posts

import (
	"errors"
	"strconv"

	"github.com/tiya001/hw05-final/internal/auth"
	"github.com/tiya001/hw05-final/internal/metrics"
	"github.com/tiya001/hw05-final/internal/pagination"
	"github.com/tiya001/hw05-final/internal/render"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	svc *Service
	rnd render.Renderer
}

func NewHandlers(svc *Service, rnd render.Renderer) *Handlers {
	return &Handlers{svc: svc, rnd: rnd}
}

// RegisterRoutes wires the feed surface. cacheMW wraps only the home feed;
// requireLogin guards every mutating or personalized route.
func RegisterRoutes(r fiber.Router, h *Handlers, cacheMW, requireLogin fiber.Handler) {
	r.Get("/", cacheMW, h.Index)
	r.Get("/follow/", requireLogin, h.FollowIndex)
	r.Get("/group/:slug/", h.GroupPosts)
	r.Get("/profile/:username/", h.Profile)
	r.Get("/profile/:username/follow/", requireLogin, h.ProfileFollow)
	r.Get("/profile/:username/unfollow/", requireLogin, h.ProfileUnfollow)
	r.Get("/create/", requireLogin, h.PostCreateForm)
	r.Post("/create/", requireLogin, h.PostCreate)
	r.Get("/posts/:post_id/", h.PostDetail)
	r.Get("/posts/:post_id/edit/", requireLogin, h.PostEditForm)
	r.Post("/posts/:post_id/edit/", requireLogin, h.PostEdit)
	r.Post("/posts/:post_id/comment/", requireLogin, h.AddComment)
	r.Post("/posts/:post_id/delete/", requireLogin, h.PostDelete)
}

func (h *Handlers) Index(c *fiber.Ctx) error {
	list, err := h.svc.AllPosts(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	metrics.PagesServed.WithLabelValues("index").Inc()
	return h.rnd.Render(c, "posts/index", fiber.Map{
		"page_obj": paginate(c, list),
	})
}

func (h *Handlers) GroupPosts(c *fiber.Ctx) error {
	group, list, err := h.svc.PostsByGroup(c.Context(), c.Params("slug"))
	if err != nil {
		return h.fail(err)
	}

	metrics.PagesServed.WithLabelValues("group_posts").Inc()
	return h.rnd.Render(c, "posts/group_list", fiber.Map{
		"group":    group,
		"page_obj": paginate(c, list),
	})
}

func (h *Handlers) Profile(c *fiber.Ctx) error {
	author, list, err := h.svc.PostsByAuthor(c.Context(), c.Params("username"))
	if err != nil {
		return h.fail(err)
	}

	following, err := h.svc.IsFollowing(c.Context(), auth.CurrentUserID(c), author.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	metrics.PagesServed.WithLabelValues("profile").Inc()
	return h.rnd.Render(c, "posts/profile", fiber.Map{
		"author":    author,
		"page_obj":  paginate(c, list),
		"following": following,
	})
}

func (h *Handlers) PostDetail(c *fiber.Ctx) error {
	post, ok, err := h.loadPost(c)
	if !ok {
		return err
	}

	comments, err := h.svc.Comments(c.Context(), post.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	metrics.PagesServed.WithLabelValues("post_detail").Inc()
	return h.rnd.Render(c, "posts/post_detail", fiber.Map{
		"post":     post,
		"comments": comments,
		"form":     fiber.Map{},
	})
}

func (h *Handlers) PostCreateForm(c *fiber.Ctx) error {
	return h.rnd.Render(c, "posts/create_post", fiber.Map{
		"form": fiber.Map{},
	})
}

func (h *Handlers) PostCreate(c *fiber.Ctx) error {
	var form PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	groupID, formErrors := validatePostForm(form)
	if len(formErrors) > 0 {
		return h.rnd.Render(c, "posts/create_post", fiber.Map{
			"form":   form,
			"errors": formErrors,
		})
	}

	if _, err := h.svc.CreatePost(c.Context(), auth.CurrentUserID(c), form.Text, groupID, form.Image); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Redirect("/profile/"+auth.CurrentUsername(c)+"/", fiber.StatusFound)
}

func (h *Handlers) PostEditForm(c *fiber.Ctx) error {
	post, ok, err := h.loadPost(c)
	if !ok {
		return err
	}
	if post.AuthorID != auth.CurrentUserID(c) {
		return redirectToPost(c, post.ID)
	}

	form := PostForm{Text: post.Text, Image: post.Image}
	if post.GroupID != nil {
		form.Group = strconv.FormatInt(*post.GroupID, 10)
	}
	return h.rnd.Render(c, "posts/create_post", fiber.Map{
		"form":    form,
		"is_edit": true,
		"post":    post,
	})
}

func (h *Handlers) PostEdit(c *fiber.Ctx) error {
	post, ok, err := h.loadPost(c)
	if !ok {
		return err
	}
	// Silent redirect for non-authors, not an error page.
	if post.AuthorID != auth.CurrentUserID(c) {
		return redirectToPost(c, post.ID)
	}

	var form PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	groupID, formErrors := validatePostForm(form)
	if len(formErrors) > 0 {
		return h.rnd.Render(c, "posts/create_post", fiber.Map{
			"form":    form,
			"errors":  formErrors,
			"is_edit": true,
			"post":    post,
		})
	}

	if err := h.svc.UpdatePost(c.Context(), post.ID, form.Text, groupID, form.Image); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return redirectToPost(c, post.ID)
}

// AddComment redirects back to the post either way: an empty comment is
// dropped without an error page.
func (h *Handlers) AddComment(c *fiber.Ctx) error {
	post, ok, err := h.loadPost(c)
	if !ok {
		return err
	}

	if text := c.FormValue("text"); text != "" {
		if _, err := h.svc.CreateComment(c.Context(), post.ID, auth.CurrentUserID(c), text); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}
	return redirectToPost(c, post.ID)
}

func (h *Handlers) PostDelete(c *fiber.Ctx) error {
	post, ok, err := h.loadPost(c)
	if !ok {
		return err
	}
	if post.AuthorID != auth.CurrentUserID(c) {
		return redirectToPost(c, post.ID)
	}

	if err := h.svc.DeletePost(c.Context(), post.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Redirect("/profile/"+auth.CurrentUsername(c)+"/", fiber.StatusFound)
}

func (h *Handlers) FollowIndex(c *fiber.Ctx) error {
	list, err := h.svc.PostsFromFollowed(c.Context(), auth.CurrentUserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	metrics.PagesServed.WithLabelValues("follow_index").Inc()
	return h.rnd.Render(c, "posts/follow", fiber.Map{
		"page_obj": paginate(c, list),
	})
}

func (h *Handlers) ProfileFollow(c *fiber.Ctx) error {
	author, err := h.svc.AuthorByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return h.fail(err)
	}

	if err := h.svc.Follow(c.Context(), auth.CurrentUserID(c), author.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Redirect("/follow/", fiber.StatusFound)
}

func (h *Handlers) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := h.svc.AuthorByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return h.fail(err)
	}

	if err := h.svc.Unfollow(c.Context(), auth.CurrentUserID(c), author.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Redirect("/follow/", fiber.StatusFound)
}

// loadPost resolves :post_id, mapping bad ids and missing rows to 404.
// ok=false means the returned error is already the response.
func (h *Handlers) loadPost(c *fiber.Ctx) (Post, bool, error) {
	id, err := strconv.ParseInt(c.Params("post_id"), 10, 64)
	if err != nil {
		return Post{}, false, fiber.ErrNotFound
	}
	post, err := h.svc.GetPost(c.Context(), id)
	if err != nil {
		return Post{}, false, h.fail(err)
	}
	return post, true, nil
}

func (h *Handlers) fail(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.ErrNotFound
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func paginate(c *fiber.Ctx, list []Post) pagination.Page[Post] {
	number := pagination.ParsePageNumber(c.Query("page"))
	return pagination.New(list, pagination.PageSize, number)
}

func redirectToPost(c *fiber.Ctx, id int64) error {
	return c.Redirect("/posts/"+strconv.FormatInt(id, 10)+"/", fiber.StatusFound)
}

func validatePostForm(form PostForm) (*int64, fiber.Map) {
	formErrors := fiber.Map{}
	if form.Text == "" {
		formErrors["text"] = "this field is required"
	}

	var groupID *int64
	if form.Group != "" {
		id, err := strconv.ParseInt(form.Group, 10, 64)
		if err != nil {
			formErrors["group"] = "select a valid group"
		} else {
			groupID = &id
		}
	}

	if len(formErrors) == 0 {
		return groupID, nil
	}
	return nil, formErrors
}
