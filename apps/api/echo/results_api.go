package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/roster"
)

type resultsApi struct {
	conf     *core.Config
	svc      *attendance.Service
	emailSvc core.EmailService
	validate *validator.Validate
}

func registerResultsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *attendance.Service,
	emailSvc core.EmailService,
	validate *validator.Validate,
) {
	api := resultsApi{
		conf:     conf,
		svc:      svc,
		emailSvc: emailSvc,
		validate: validate,
	}

	rg := g.Group("/sessions/:id/results", jwt, teacherMiddleware())
	rg.GET("", api.query)
	rg.GET("/stats", api.stats)
	rg.PUT("/edit-mode", api.setEditMode)
	rg.POST("/toggle", api.toggle)
	rg.GET("/export", api.export)
	rg.POST("/share", api.share)
}

type (
	EditModeRequest struct {
		Enabled bool `json:"enabled"`
	}

	// ToggleRequest must not have an `ID` field: echo binds the `:id` path param to it.
	ToggleRequest struct {
		StudentID string `json:"id" validate:"required"`
		RollNo    string `json:"rollNo"`
	}

	ToggleResponse struct {
		Student roster.Student `json:"student"`
		Toggled bool           `json:"toggled"`
	}

	ShareRequest struct {
		Recipients string `json:"recipients" validate:"required,emaillist"`
		Label      string `json:"label"`
	}

	ShareResponse struct {
		GmailURL string `json:"gmailUrl"`
		FileName string `json:"fileName"`
	}
)

var sortKeys = map[string]attendance.SortKey{
	"rollNo": attendance.SortByRollNo,
	"rollno": attendance.SortByRollNo,
	"name":   attendance.SortByName,
}

// bindQuery reads `?search=..&status=present&ordering=-name`.
func bindQuery(ctx echo.Context) (attendance.Query, error) {
	q := attendance.Query{Search: ctx.QueryParam("search")}

	if val := ctx.QueryParam("status"); val != "" {
		st, err := roster.ParseStatus(val)
		if err != nil {
			return q, core.NewValidationError(nil, core.FieldError{Field: "status", Error: err.Error()})
		}
		q.Status = &st
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	if ord, ok := ordering.First(); ok {
		key, ok := sortKeys[ord.Field]
		if !ok {
			return q, core.NewValidationError(nil, core.FieldError{Field: orderingParam, Error: fmt.Sprintf("cannot order by %q", ord.Field)})
		}
		q.SortKey = key
		q.Direction = attendance.Asc
		if !ord.Ascending {
			q.Direction = attendance.Desc
		}
	}
	return q, nil
}

func (api *resultsApi) results(ctx echo.Context) (*attendance.ResultSet, error) {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return nil, err
	}
	return api.svc.Results(ctx.Param("id"), owner)
}

func (api *resultsApi) meta(ctx echo.Context) (report.Meta, error) {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return report.Meta{}, err
	}
	s, err := api.svc.Session(ctx.Param("id"), owner)
	if err != nil {
		return report.Meta{}, err
	}
	id, err := getContextIdentity(ctx)
	if err != nil {
		return report.Meta{}, err
	}
	return report.Meta{
		Institution: api.conf.Report.Institution,
		Department:  api.conf.Report.Department,
		LogoPath:    api.conf.Report.LogoPath,
		Subject:     id.SubjectNames(),
		ClassID:     s.Selection().ClassID,
		Teacher:     id.Name,
		GeneratedAt: nowFunc(),
	}, nil
}

// Handlers

func (api *resultsApi) query(ctx echo.Context) error {
	rs, err := api.results(ctx)
	if err != nil {
		return errors.Wrap(err, "getting results")
	}
	q, err := bindQuery(ctx)
	if err != nil {
		return err
	}
	students, err := rs.Query(q)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, newResultsResponse(rs, students))
}

func (api *resultsApi) stats(ctx echo.Context) error {
	rs, err := api.results(ctx)
	if err != nil {
		return errors.Wrap(err, "getting results")
	}
	return ctx.JSON(http.StatusOK, rs.Stats())
}

func (api *resultsApi) setEditMode(ctx echo.Context) error {
	owner, err := ctxOwner(ctx)
	if err != nil {
		return err
	}
	var data EditModeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditModeRequest")
	}

	rs, err := api.svc.SetEditMode(ctx.Request().Context(), ctx.Param("id"), owner, data.Enabled)
	if err != nil {
		return errors.Wrap(err, "setting edit mode")
	}
	students, err := rs.Query(attendance.Query{})
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, newResultsResponse(rs, students))
}

func (api *resultsApi) toggle(ctx echo.Context) error {
	rs, err := api.results(ctx)
	if err != nil {
		return errors.Wrap(err, "getting results")
	}
	var data ToggleRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	stu, toggled, err := rs.ToggleStatus(data.StudentID, data.RollNo)
	if err != nil {
		return errors.Wrap(err, "toggling status")
	}
	return ctx.JSON(http.StatusOK, ToggleResponse{Student: stu, Toggled: toggled})
}

func (api *resultsApi) generate(ctx echo.Context, label, format string) (report.Document, *attendance.ResultSet, report.Meta, error) {
	rs, err := api.results(ctx)
	if err != nil {
		return report.Document{}, nil, report.Meta{}, errors.Wrap(err, "getting results")
	}
	lbl, err := report.ParseLabel(label)
	if err != nil {
		return report.Document{}, nil, report.Meta{}, err
	}
	gen, err := report.New(format)
	if err != nil {
		return report.Document{}, nil, report.Meta{}, core.NewValidationError(nil, core.FieldError{Field: "format", Error: err.Error()})
	}
	meta, err := api.meta(ctx)
	if err != nil {
		return report.Document{}, nil, report.Meta{}, errors.Wrap(err, "building report meta")
	}
	doc, err := gen.Generate(rs, lbl, meta)
	if err != nil {
		return report.Document{}, nil, report.Meta{}, errors.Wrap(err, "generating report")
	}
	return doc, rs, meta, nil
}

// export downloads the Present, Absent or Complete list as a PDF (default) or CSV file.
func (api *resultsApi) export(ctx echo.Context) error {
	doc, _, _, err := api.generate(ctx, ctx.QueryParam("label"), ctx.QueryParam("format"))
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

// share emails the report as a PDF attachment and returns the equivalent Gmail compose link.
func (api *resultsApi) share(ctx echo.Context) error {
	var data ShareRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ShareRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	recipients, err := core.ParseEmailList(data.Recipients)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "recipients", Error: err.Error()})
	}

	doc, rs, meta, err := api.generate(ctx, data.Label, report.FormatPDF)
	if err != nil {
		return err
	}
	sh, err := report.NewShare(recipients, doc, rs.Stats(), meta)
	if err != nil {
		return errors.Wrap(err, "preparing share")
	}
	api.emailSvc.SendMessages(sh.Message)

	return ctx.JSON(http.StatusOK, ShareResponse{GmailURL: sh.GmailURL, FileName: doc.FileName})
}
