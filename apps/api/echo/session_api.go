package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
)

type sessionApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, validate *validator.Validate) {
	api := sessionApi{svc: svc, validate: validate}

	sg := g.Group("/sessions", jwt, teacherMiddleware())
	sg.POST("", api.start)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.discard)
	dg.POST("/decide", api.decide)
	dg.POST("/undo", api.undo)
	dg.POST("/restart", api.restart)
	dg.POST("/finalize", api.finalize)
}

type (
	DecideRequest struct {
		Status roster.Status `json:"status"`
	}

	UndoResponse struct {
		Undone  bool                `json:"undone"`
		Session attendance.Snapshot `json:"session"`
	}

	ResultsResponse struct {
		Students []roster.Student `json:"students"`
		Stats    attendance.Stats `json:"stats"`
		EditMode bool             `json:"editMode"`
	}
)

func newResultsResponse(rs *attendance.ResultSet, students []roster.Student) ResultsResponse {
	if students == nil {
		students = []roster.Student{}
	}
	return ResultsResponse{Students: students, Stats: rs.Stats(), EditMode: rs.EditMode()}
}

func ctxOwner(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	return claims.Subject, nil
}

func (api *sessionApi) session(ctx echo.Context) (*attendance.Session, error) {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return nil, err
	}
	return api.svc.Session(ctx.Param("id"), owner)
}

// Handlers

func (api *sessionApi) start(ctx echo.Context) error {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return err
	}

	var sel roster.Selection
	if err = ctx.Bind(&sel); err != nil {
		return errors.Wrap(err, "binding to Selection")
	}
	if err = api.validate.Struct(sel); err != nil {
		return err
	}

	s, err := api.svc.Start(ctx.Request().Context(), owner, sel)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusCreated, s.Snapshot())
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *sessionApi) decide(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}

	var data DecideRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DecideRequest")
	}
	if err = s.Decide(data.Status); err != nil {
		return errors.Wrap(err, "deciding")
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *sessionApi) undo(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	undone := s.Undo()
	return ctx.JSON(http.StatusOK, UndoResponse{Undone: undone, Session: s.Snapshot()})
}

func (api *sessionApi) restart(ctx echo.Context) error {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Restart(ctx.Param("id"), owner)
	if err != nil {
		return errors.Wrap(err, "restarting session")
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *sessionApi) discard(ctx echo.Context) error {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Discard(ctx.Param("id"), owner); err != nil {
		return errors.Wrap(err, "discarding session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) finalize(ctx echo.Context) error {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return err
	}
	rs, err := api.svc.Finalize(ctx.Request().Context(), ctx.Param("id"), owner)
	if err != nil {
		return errors.Wrap(err, "finalizing session")
	}
	students, err := rs.Query(attendance.Query{})
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, newResultsResponse(rs, students))
}
