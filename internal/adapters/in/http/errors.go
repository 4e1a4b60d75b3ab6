package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/pipeline"

	"github.com/labstack/echo/v4"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Stage is set when a side-effect step failed.
	Stage string `json:"stage,omitempty"`
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(kind fulfillment.Kind) int {
	switch kind {
	case fulfillment.KindNotFound:
		return http.StatusNotFound
	case fulfillment.KindInvalidState,
		fulfillment.KindAlreadyClaimed,
		fulfillment.KindTerminalState,
		fulfillment.KindConflict:
		return http.StatusConflict
	case fulfillment.KindLocked:
		return http.StatusLocked
	case fulfillment.KindInvoiceFailed, fulfillment.KindLabelFailed:
		return http.StatusBadGateway
	case fulfillment.KindTimeout:
		return http.StatusGatewayTimeout
	case fulfillment.KindValidation:
		return http.StatusBadRequest
	case fulfillment.KindCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c echo.Context, err error) error {
	kind := fulfillment.KindOf(err)
	status := HTTPStatus(kind)

	body := Error{Code: status, Kind: string(kind), Message: err.Error()}

	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		body.Stage = string(stepErr.Stage)
		body.Message = stepErr.Reason
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "Request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		body.Message = http.StatusText(status)
	}

	return c.JSON(status, body)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Kind:    string(fulfillment.KindValidation),
		Message: message,
	})
}
