package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/roster"
)

type classApi struct {
	loader *roster.Loader
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, loader *roster.Loader) {
	api := classApi{loader: loader}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query)
	cg.GET("/:classId/students", api.students)
}

// bindSelection reads `?mode=custom&start=1&end=20`. The range is kept only when both bounds parse.
func bindSelection(ctx echo.Context, classID string) roster.Selection {
	sel := roster.Selection{ClassID: classID, Mode: roster.Mode(ctx.QueryParam("mode"))}
	if sel.Mode == "" {
		sel.Mode = roster.ModeFull
	}
	start, sErr := strconv.Atoi(ctx.QueryParam("start"))
	end, eErr := strconv.Atoi(ctx.QueryParam("end"))
	if sErr == nil && eErr == nil {
		sel.Range = &roster.Range{Start: start, End: end}
	}
	return sel
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.loader.Classes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

// students previews the roster a session would get for the same selection.
func (api *classApi) students(ctx echo.Context) error {
	students := api.loader.Load(ctx.Request().Context(), bindSelection(ctx, ctx.Param("classId")))
	return ctx.JSON(http.StatusOK, students)
}
