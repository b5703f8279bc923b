package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/settings"
	"github.com/trezcool/mahudhurio/core/subject"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

const ctxObjectKey = "object"

type adminApi struct {
	loader        *roster.Loader
	accountSvc    *account.Service
	subjectSvc    *subject.Service
	settingsSvc   *settings.Service
	attendanceSvc *attendance.Service
	validate      *validator.Validate
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		loader:        deps.Loader,
		accountSvc:    deps.AccountSvc,
		subjectSvc:    deps.SubjectSvc,
		settingsSvc:   deps.SettingsSvc,
		attendanceSvc: deps.AttendanceSvc,
		validate:      deps.Validate,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/stats", api.dashboardStats)

	tg := ag.Group("/teachers")
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher)
	tg.DELETE("", api.destroyTeachers)
	tdg := tg.Group("/:id", api.teacherMiddleware)
	tdg.GET("", api.retrieveTeacher)
	tdg.PUT("", api.updateTeacher)
	tdg.DELETE("", api.destroyTeacher)

	sg := ag.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)

	ag.GET("/settings", api.getSettings)
	ag.PUT("/settings", api.saveSettings)

	ag.GET("/reports/:classId/:date", api.attendanceReport)
}

type (
	DashboardStats struct {
		TotalStudents int `json:"totalStudents"`
		TotalTeachers int `json:"totalTeachers"`
		TotalSubjects int `json:"totalSubjects"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (api *adminApi) dashboardStats(ctx echo.Context) error {
	c := ctx.Request().Context()
	var stats DashboardStats
	var err error

	if stats.TotalStudents, err = api.loader.CountStudents(c); err != nil {
		return errors.Wrap(err, "counting students")
	}
	if stats.TotalTeachers, err = api.accountSvc.CountTeachers(c); err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	if stats.TotalSubjects, err = api.subjectSvc.Count(c); err != nil {
		return errors.Wrap(err, "counting subjects")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Teachers

func (api *adminApi) teacherMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		acc, err := api.accountSvc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == account.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding teacher by ID")
		}
		ctx.Set(ctxObjectKey, acc)
		return next(ctx)
	}
}

func ctxTeacher(ctx echo.Context) (account.Account, error) {
	acc, ok := ctx.Get(ctxObjectKey).(account.Account)
	if !ok {
		return account.Account{}, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return acc, nil
}

func (api *adminApi) queryTeachers(ctx echo.Context) error {
	filter := new(account.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []account.Account{})
	}
	accs, err := api.accountSvc.QueryTeachers(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, accs)
}

func (api *adminApi) createTeacher(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.accountSvc); err != nil {
		return err
	}

	acc, err := api.accountSvc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *adminApi) retrieveTeacher(ctx echo.Context) error {
	acc, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *adminApi) updateTeacher(ctx echo.Context) error {
	acc, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}

	var data account.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err = data.Validate(ctx.Request().Context(), acc, api.validate, api.accountSvc); err != nil {
		return err
	}

	acc, err = api.accountSvc.UpdateTeacher(ctx.Request().Context(), acc.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *adminApi) destroyTeacher(ctx echo.Context) error {
	acc, err := ctxTeacher(ctx)
	if err != nil {
		return err
	}
	if err = api.accountSvc.DeleteTeachers(ctx.Request().Context(), acc.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	api.attendanceSvc.DiscardAll(acc.ID)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyTeachers(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.accountSvc.DeleteTeachers(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting teachers")
	}
	for _, id := range query.IDs {
		api.attendanceSvc.DiscardAll(id)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *adminApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.subjectSvc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *adminApi) createSubject(ctx echo.Context) error {
	var data subject.SaveSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.subjectSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *adminApi) retrieveSubject(ctx echo.Context) error {
	s, err := api.subjectSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *adminApi) updateSubject(ctx echo.Context) error {
	var data subject.SaveSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.subjectSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *adminApi) destroySubject(ctx echo.Context) error {
	if err := api.subjectSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Settings

func (api *adminApi) getSettings(ctx echo.Context) error {
	s, err := api.settingsSvc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *adminApi) saveSettings(ctx echo.Context) error {
	var data settings.Settings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Settings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.settingsSvc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

// Reports

func (api *adminApi) attendanceReport(ctx echo.Context) error {
	classID, date := ctx.Param("classId"), ctx.Param("date")
	if !core.ValidDocumentKey(classID) || !core.ValidDocumentKey(date) {
		return errHttpNotFound
	}
	rep, err := api.attendanceSvc.Report(ctx.Request().Context(), classID, date)
	if err != nil {
		return errors.Wrap(err, "getting attendance report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
