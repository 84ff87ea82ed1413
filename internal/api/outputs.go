package api

import (
	"errors"
	"net/http"

	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/labstack/echo/v4"
)

type outputState struct {
	Id            string  `json:"id"`
	Running       bool    `json:"running"`
	Duty          float64 `json:"duty"`
	CycleLength   int64   `json:"cycleLengthUsec"`
	OnInterval    int64   `json:"onIntervalUsec"`
	OffInterval   int64   `json:"offIntervalUsec"`
	Cycles        uint64  `json:"cycles"`
	WriteFailures uint64  `json:"writeFailures"`
}

type dutyRequest struct {
	Duty float64 `json:"duty"`
}

type outputHandler struct {
	outputs      map[string]*pwm.Pwm
	onDutyChange func(outputId string, duty float64)
}

func registerOutputEndpoints(rest *echo.Echo, outputs map[string]*pwm.Pwm, onDutyChange func(outputId string, duty float64)) {
	handler := &outputHandler{
		outputs:      outputs,
		onDutyChange: onDutyChange,
	}

	group := rest.Group("/output")

	group.GET("/", handler.getOutputs)
	group.GET("/:"+urlParamId+"/", handler.getOutput)
	group.GET("/:"+urlParamId+"/duty/", handler.getDuty)
	group.PUT("/:"+urlParamId+"/duty/", handler.setDuty)
}

// returns the state of all currently configured outputs
func (h *outputHandler) getOutputs(c echo.Context) error {
	data := map[string]outputState{}
	for id, output := range h.outputs {
		data[id] = stateOf(output)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *outputHandler) getOutput(c echo.Context) error {
	id := c.Param(urlParamId)
	output, exists := h.outputs[id]
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, stateOf(output), indentationChar)
}

func (h *outputHandler) getDuty(c echo.Context) error {
	id := c.Param(urlParamId)
	output, exists := h.outputs[id]
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, dutyRequest{Duty: output.Duty()}, indentationChar)
}

// setDuty applies a duty fraction to a running output. Unlike the engine
// itself, the API rejects fractions outside [0.0, 1.0].
func (h *outputHandler) setDuty(c echo.Context) error {
	id := c.Param(urlParamId)
	output, exists := h.outputs[id]
	if !exists {
		return returnNotFound(c, id)
	}

	var request dutyRequest
	if err := c.Bind(&request); err != nil {
		return returnError(c, err)
	}
	if request.Duty < 0.0 || request.Duty > 1.0 {
		return returnError(c, errors.New("duty must be in [0.0, 1.0]"))
	}

	output.SetDuty(request.Duty)
	if h.onDutyChange != nil {
		h.onDutyChange(id, request.Duty)
	}

	return c.JSONPretty(http.StatusOK, stateOf(output), indentationChar)
}

func stateOf(output *pwm.Pwm) outputState {
	intervals := output.Intervals()
	return outputState{
		Id:            output.Id(),
		Running:       output.Running(),
		Duty:          output.Duty(),
		CycleLength:   output.CycleLength().Microseconds(),
		OnInterval:    intervals.On.Microseconds(),
		OffInterval:   intervals.Off.Microseconds(),
		Cycles:        output.Cycles(),
		WriteFailures: output.WriteFailures(),
	}
}
