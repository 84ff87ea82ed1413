package api

import (
	"net/http"

	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// CreateRestService builds the REST interface of the daemon. onDutyChange is
// invoked after a duty fraction has been applied through the API.
func CreateRestService(outputs map[string]*pwm.Pwm, onDutyChange func(outputId string, duty float64)) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Recover())

	echoRest.GET("/alive/", isAlive)

	registerOutputEndpoints(echoRest, outputs, onDutyChange)

	return echoRest
}

func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func returnNotFound(c echo.Context, id string) error {
	return c.JSONPretty(http.StatusNotFound, Result{
		Name:    "Not found",
		Message: "No output with id: " + id,
	}, indentationChar)
}

func returnError(c echo.Context, err error) error {
	return c.JSONPretty(http.StatusBadRequest, Result{
		Name:    "Bad request",
		Message: err.Error(),
	}, indentationChar)
}
