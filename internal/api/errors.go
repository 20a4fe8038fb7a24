package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/terminal"
)

// Error kinds reported in the "kind" field of error responses.
const (
	ErrorKindPathNotFound         = "PathNotFound"
	ErrorKindNotADirectory        = "NotADirectory"
	ErrorKindIO                   = "IOError"
	ErrorKindExecution            = "ExecutionError"
	ErrorKindUnsupportedShellKind = "UnsupportedShellKind"
	ErrorKindBadRequest           = "BadRequest"
	ErrorKindInternal             = "InternalError"
)

const invalidRequestBodyMessageConstant = "invalid request body"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeBadRequest(requestContext echo.Context, bindError error) error {
	message := invalidRequestBodyMessageConstant
	var httpError *echo.HTTPError
	if errors.As(bindError, &httpError) && httpError.Internal != nil {
		message = message + ": " + httpError.Internal.Error()
	}
	return requestContext.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: ErrorKindBadRequest})
}

func writeError(requestContext echo.Context, failure error) error {
	status, kind := classifyError(failure)
	return requestContext.JSON(status, ErrorResponse{Error: failure.Error(), Kind: kind})
}

func classifyError(failure error) (int, string) {
	var executionError terminal.ExecutionError
	switch {
	case errors.Is(failure, execshell.ErrUnsupportedShellKind):
		return http.StatusBadRequest, ErrorKindUnsupportedShellKind
	case errors.Is(failure, filebrowser.ErrPathNotFound):
		return http.StatusNotFound, ErrorKindPathNotFound
	case errors.Is(failure, filebrowser.ErrNotADirectory):
		return http.StatusUnprocessableEntity, ErrorKindNotADirectory
	case errors.Is(failure, filebrowser.ErrIO):
		return http.StatusInternalServerError, ErrorKindIO
	case errors.As(failure, &executionError):
		return http.StatusInternalServerError, ErrorKindExecution
	default:
		return http.StatusInternalServerError, ErrorKindInternal
	}
}
