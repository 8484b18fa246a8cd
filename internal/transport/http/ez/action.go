// Package ez registers typed handlers behind a single path that selects the
// operation with the `action` query parameter.
package ez

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"event-portal/internal/domain"
	resp "event-portal/internal/transport/http/response"
)

// Context keys written by the auth middleware.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
)

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// AErr carries an explicit HTTP status for failures that are not part of the
// domain taxonomy.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action describes one operation: I is bound from the request, O is returned
// in the envelope's data field.
type Action[I any, O any] struct {
	Name    string
	Method  string
	Binder  Binder
	Status  int      // success status, 200 when zero
	Roles   []string // required role, checked against the auth middleware's claims
	Handler func(c *gin.Context, in *I) (O, error)
}

type route struct {
	method string
	h      gin.HandlerFunc
}

// Dispatcher routes `<path>?action=<name>` to the registered action.
type Dispatcher struct {
	routes map[string]route
}

// Mount registers the dispatcher on g for every method.
func Mount(g *gin.RouterGroup, path string) *Dispatcher {
	d := &Dispatcher{routes: map[string]route{}}
	g.Any(path, d.serve)
	return d
}

func (d *Dispatcher) serve(c *gin.Context) {
	rt, ok := d.routes[c.Query("action")]
	if !ok || rt.method != c.Request.Method {
		resp.Abort(c, http.StatusNotFound, resp.MsgActionNotFound)
		return
	}
	rt.h(c)
}

// Actions lists the registered action names.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.routes))
	for name := range d.routes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Register adds a to d. Registering the same name twice panics.
func Register[I any, O any](d *Dispatcher, a Action[I, O]) {
	if _, dup := d.routes[a.Name]; dup {
		panic("ez: duplicate action " + a.Name)
	}
	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		if len(a.Roles) > 0 {
			if c.GetString(KeyUserID) == "" {
				writeError(c, Unauthorized(resp.MsgUnauthorized))
				return
			}
			if !slices.Contains(a.Roles, c.GetString(KeyRole)) {
				writeError(c, Forbidden(resp.MsgForbidden))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			writeBindError(c, bindErr)
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			writeError(c, err)
			return
		}
		resp.JSON(c, status, out)
	}
	d.routes[a.Name] = route{method: method, h: h}
}

func writeError(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		_ = c.Error(err)
		resp.Abort(c, ae.Code, ae.Error())
		return
	}
	resp.Err(c, err)
}

func writeBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		resp.Abort(c, http.StatusRequestEntityTooLarge, resp.MsgBodyTooLarge)
		return
	}
	// Domain decoders (tags, patches) already speak ValidationError.
	if errors.Is(err, domain.ErrValidation) {
		resp.Err(c, err)
		return
	}
	resp.Abort(c, http.StatusBadRequest, "invalid request: "+err.Error())
}
