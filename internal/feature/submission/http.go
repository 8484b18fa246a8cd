package submission

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"event-portal/internal/core/auth"
	"event-portal/internal/domain"
	"event-portal/internal/transport/http/ez"
	mdw "event-portal/internal/transport/http/middleware"
	resp "event-portal/internal/transport/http/response"
)

// Module exposes the service on /event of both engines.
type Module struct {
	svc *Service
	jwt *auth.JWTer
}

func NewModule(svc *Service, jwt *auth.JWTer) *Module { return &Module{svc: svc, jwt: jwt} }

type idQuery struct {
	ID string `form:"id"`
}

type emailQuery struct {
	Email string `form:"email"`
}

type statusIn struct {
	ID      string       `json:"id"`
	Updates domain.Patch `json:"updates"`
}

func (m *Module) MountAPI(g *gin.RouterGroup) {
	d := ez.Mount(g, "/event")

	ez.Register(d, ez.Action[struct{}, domain.Submission]{
		Name: "create", Method: http.MethodPost, Binder: ez.BindNone, Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Submission, error) {
			body, err := c.GetRawData()
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return nil, &ez.AErr{Code: http.StatusRequestEntityTooLarge, Msg: resp.MsgBodyTooLarge}
				}
				return nil, ez.BadRequest("could not read request body")
			}
			return m.svc.Create(c.Request.Context(), body)
		},
	})

	ez.Register(d, ez.Action[idQuery, domain.Submission]{
		Name: "find_by_id", Method: http.MethodGet, Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *idQuery) (domain.Submission, error) {
			return m.svc.FindByID(c.Request.Context(), in.ID)
		},
	})

	ez.Register(d, ez.Action[emailQuery, domain.Submission]{
		Name: "find_by_email", Method: http.MethodGet, Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *emailQuery) (domain.Submission, error) {
			return m.svc.FindByEmail(c.Request.Context(), in.Email)
		},
	})

	ez.Register(d, ez.Action[statusIn, domain.Submission]{
		Name: "update_status", Method: http.MethodPost, Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *statusIn) (domain.Submission, error) {
			return m.svc.UpdateStatus(c.Request.Context(), in.ID, in.Updates)
		},
	})

	ez.Register(d, ez.Action[idQuery, PaymentView]{
		Name: "payment_details", Method: http.MethodGet, Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *idQuery) (PaymentView, error) {
			return m.svc.PaymentDetails(c.Request.Context(), in.ID)
		},
	})
}

type listQuery struct {
	Type string `form:"type"`
}

type idsIn struct {
	IDs []string `json:"ids"`
}

type idIn struct {
	ID string `json:"id"`
}

type updateIn struct {
	ID      string       `json:"id"`
	Type    domain.Kind  `json:"type"`
	Updates domain.Patch `json:"updates"`
}

func (m *Module) MountAdmin(g *gin.RouterGroup) {
	admin := g.Group("", mdw.AuthJWT(m.jwt, auth.RoleAdmin))
	d := ez.Mount(admin, "/event")
	roles := []string{auth.RoleAdmin}

	ez.Register(d, ez.Action[listQuery, any]{
		Name: "get_all", Method: http.MethodGet, Binder: ez.BindQuery, Roles: roles,
		Handler: func(c *gin.Context, in *listQuery) (any, error) {
			ctx := c.Request.Context()
			switch in.Type {
			case CollectionRegistrations:
				return m.svc.Registrations(ctx)
			case CollectionShowcases:
				return m.svc.Showcases(ctx)
			case "":
				return m.svc.All(ctx)
			}
			return nil, domain.Invalid("type", "type must be registrations or showcases")
		},
	})

	ez.Register(d, ez.Action[idsIn, BulkResult]{
		Name: "mark_pending", Method: http.MethodPost, Binder: ez.BindJSON, Roles: roles,
		Handler: func(c *gin.Context, in *idsIn) (BulkResult, error) {
			return m.svc.MarkPending(c.Request.Context(), in.IDs)
		},
	})

	ez.Register(d, ez.Action[idIn, domain.Submission]{
		Name: "confirm_payment", Method: http.MethodPost, Binder: ez.BindJSON, Roles: roles,
		Handler: func(c *gin.Context, in *idIn) (domain.Submission, error) {
			return m.svc.ConfirmPayment(c.Request.Context(), in.ID)
		},
	})

	ez.Register(d, ez.Action[updateIn, domain.Submission]{
		Name: "update_submission", Method: http.MethodPost, Binder: ez.BindJSON, Roles: roles,
		Handler: func(c *gin.Context, in *updateIn) (domain.Submission, error) {
			return m.svc.UpdateSubmission(c.Request.Context(), in.Type, in.ID, in.Updates)
		},
	})
}
