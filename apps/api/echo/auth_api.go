package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type authApi struct {
	conf          *core.Config
	svc           *account.Service
	attendanceSvc *attendance.Service
	logger        core.Logger
	validate      *validator.Validate
}

func registerAuthAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *account.Service,
	attendanceSvc *attendance.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := authApi{
		conf:          conf,
		svc:           svc,
		attendanceSvc: attendanceSvc,
		logger:        logger,
		validate:      validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.teacherLogin)
	ag.POST("/admin/login", api.adminLogin)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.POST("/logout", api.logout, jwt)
	ag.GET("/me", api.me, jwt)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token    string            `json:"token"`
		Identity *account.Identity `json:"user,omitempty"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

// Handlers

func (api *authApi) teacherLogin(ctx echo.Context) error {
	return api.login(ctx, account.RoleTeacher)
}

func (api *authApi) adminLogin(ctx echo.Context) error {
	return api.login(ctx, account.RoleAdmin)
}

func (api *authApi) login(ctx echo.Context, role account.Role) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id, err := api.svc.Authenticate(ctx.Request().Context(), role, data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetIdentityClaims(api.conf, id))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	api.logger.Info(fmt.Sprintf("%s %q logged in", role, id.Username), id)
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Identity: &id})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) logout(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	if err = api.svc.Logout(ctx.Request().Context(), id); err != nil && errors.Cause(err) != account.ErrNotFound {
		return errors.Wrap(err, "logging out")
	}
	if id.IsTeacher() {
		api.attendanceSvc.DiscardAll(id.ID)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	return ctx.JSON(http.StatusOK, id)
}
