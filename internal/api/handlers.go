package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/temirov/codedeck/internal/terminal"
)

const (
	greetingTemplateConstant = "Hello, %s! You've been greeted from Go!"
	healthStatusOKConstant   = "ok"
)

type greetRequest struct {
	Name string `json:"name"`
}

type greetResponse struct {
	Message string `json:"message"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type readFileResponse struct {
	Content string `json:"content"`
}

type openSessionRequest struct {
	ShellKind        string `json:"shellKind"`
	WorkingDirectory string `json:"workingDirectory"`
}

type executeRequest struct {
	SessionID        string `json:"sessionId"`
	Command          string `json:"command"`
	ShellKind        string `json:"shellKind"`
	WorkingDirectory string `json:"workingDirectory"`
}

type currentDirectoryRequest struct {
	SessionID string `json:"sessionId"`
	ShellKind string `json:"shellKind"`
}

type currentDirectoryResponse struct {
	Directory string `json:"directory"`
}

// FormatGreeting returns the greeting used to check that the backend is reachable.
func FormatGreeting(name string) string {
	return fmt.Sprintf(greetingTemplateConstant, name)
}

func (server *Server) health(requestContext echo.Context) error {
	return requestContext.JSON(http.StatusOK, map[string]string{"status": healthStatusOKConstant})
}

func (server *Server) greet(requestContext echo.Context) error {
	var request greetRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	return requestContext.JSON(http.StatusOK, greetResponse{Message: FormatGreeting(request.Name)})
}

func (server *Server) listDirectory(requestContext echo.Context) error {
	var request pathRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	entries, listingError := server.fileBrowser.ListDirectory(request.Path)
	if listingError != nil {
		return writeError(requestContext, listingError)
	}
	return requestContext.JSON(http.StatusOK, entries)
}

func (server *Server) listSubdirectory(requestContext echo.Context) error {
	var request pathRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	entries, listingError := server.fileBrowser.ListSubdirectory(request.Path)
	if listingError != nil {
		return writeError(requestContext, listingError)
	}
	return requestContext.JSON(http.StatusOK, entries)
}

func (server *Server) readFile(requestContext echo.Context) error {
	var request pathRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	content, readError := server.fileBrowser.ReadFile(request.Path)
	if readError != nil {
		return writeError(requestContext, readError)
	}
	return requestContext.JSON(http.StatusOK, readFileResponse{Content: content})
}

func (server *Server) openSession(requestContext echo.Context) error {
	var request openSessionRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	session, openError := server.terminal.OpenSession(request.ShellKind, request.WorkingDirectory)
	if openError != nil {
		return writeError(requestContext, openError)
	}
	return requestContext.JSON(http.StatusOK, session)
}

func (server *Server) execute(requestContext echo.Context) error {
	var request executeRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	commandResult, executionError := server.terminal.Execute(detachedContext(requestContext), terminal.ExecuteOptions{
		SessionID:        request.SessionID,
		Command:          request.Command,
		ShellKind:        request.ShellKind,
		WorkingDirectory: request.WorkingDirectory,
	})
	if executionError != nil {
		return writeError(requestContext, executionError)
	}
	return requestContext.JSON(http.StatusOK, commandResult)
}

func (server *Server) currentDirectory(requestContext echo.Context) error {
	var request currentDirectoryRequest
	if bindError := requestContext.Bind(&request); bindError != nil {
		return writeBadRequest(requestContext, bindError)
	}
	directory, directoryError := server.terminal.CurrentDirectory(detachedContext(requestContext), request.SessionID, request.ShellKind)
	if directoryError != nil {
		return writeError(requestContext, directoryError)
	}
	return requestContext.JSON(http.StatusOK, currentDirectoryResponse{Directory: directory})
}

// detachedContext keeps request values but drops request cancellation: a client disconnect
// does not stop a running command.
func detachedContext(requestContext echo.Context) context.Context {
	return context.WithoutCancel(requestContext.Request().Context())
}
