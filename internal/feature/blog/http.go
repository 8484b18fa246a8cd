package blog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event-portal/internal/core/auth"
	"event-portal/internal/domain"
	"event-portal/internal/transport/http/ez"
	mdw "event-portal/internal/transport/http/middleware"
)

// Module exposes the service on /blog of both engines.
type Module struct {
	svc *Service
	jwt *auth.JWTer
}

func NewModule(svc *Service, jwt *auth.JWTer) *Module { return &Module{svc: svc, jwt: jwt} }

type slugQuery struct {
	Slug string `form:"slug"`
}

type postQuery struct {
	PostID string `form:"post_id"`
}

type commentIn struct {
	PostID     string `json:"post_id"`
	AuthorName string `json:"author_name"`
	Comment    string `json:"comment"`
}

type viewIn struct {
	PostID string `json:"post_id"`
}

type viewOut struct {
	PostID    string `json:"post_id"`
	ViewCount int64  `json:"view_count"`
}

func (m *Module) MountAPI(g *gin.RouterGroup) {
	d := ez.Mount(g, "/blog")

	ez.Register(d, ez.Action[struct{}, []*domain.Post]{
		Name: "get_posts", Method: http.MethodGet,
		Handler: func(c *gin.Context, _ *struct{}) ([]*domain.Post, error) {
			return m.svc.ListPosts(c.Request.Context())
		},
	})

	ez.Register(d, ez.Action[slugQuery, *domain.Post]{
		Name: "get_post_by_slug", Method: http.MethodGet, Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *slugQuery) (*domain.Post, error) {
			return m.svc.GetPostBySlug(c.Request.Context(), in.Slug)
		},
	})

	ez.Register(d, ez.Action[postQuery, []*domain.Comment]{
		Name: "get_comments_for_post", Method: http.MethodGet, Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *postQuery) ([]*domain.Comment, error) {
			return m.svc.ListComments(c.Request.Context(), in.PostID)
		},
	})

	ez.Register(d, ez.Action[commentIn, *domain.Comment]{
		Name: "create_comment", Method: http.MethodPost, Binder: ez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *commentIn) (*domain.Comment, error) {
			return m.svc.CreateComment(c.Request.Context(), in.PostID, in.AuthorName, in.Comment)
		},
	})

	ez.Register(d, ez.Action[viewIn, viewOut]{
		Name: "increment_view_count", Method: http.MethodPost, Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *viewIn) (viewOut, error) {
			n, err := m.svc.IncrementViewCount(c.Request.Context(), in.PostID)
			if err != nil {
				return viewOut{}, err
			}
			return viewOut{PostID: in.PostID, ViewCount: n}, nil
		},
	})
}

type updateIn struct {
	ID      string       `json:"id"`
	Updates domain.Patch `json:"updates"`
}

type idIn struct {
	ID string `json:"id"`
}

func (m *Module) MountAdmin(g *gin.RouterGroup) {
	admin := g.Group("", mdw.AuthJWT(m.jwt, auth.RoleAdmin))
	d := ez.Mount(admin, "/blog")
	roles := []string{auth.RoleAdmin}

	ez.Register(d, ez.Action[domain.Post, *domain.Post]{
		Name: "create_post", Method: http.MethodPost, Binder: ez.BindJSON, Status: http.StatusCreated, Roles: roles,
		Handler: func(c *gin.Context, in *domain.Post) (*domain.Post, error) {
			return m.svc.CreatePost(c.Request.Context(), in)
		},
	})

	ez.Register(d, ez.Action[updateIn, *domain.Post]{
		Name: "update_post", Method: http.MethodPost, Binder: ez.BindJSON, Roles: roles,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Post, error) {
			return m.svc.UpdatePost(c.Request.Context(), in.ID, in.Updates)
		},
	})

	ez.Register(d, ez.Action[idIn, DeleteResult]{
		Name: "delete_post", Method: http.MethodPost, Binder: ez.BindJSON, Roles: roles,
		Handler: func(c *gin.Context, in *idIn) (DeleteResult, error) {
			return m.svc.DeletePost(c.Request.Context(), in.ID)
		},
	})
}
