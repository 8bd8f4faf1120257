// Package handler exposes the portal screens over HTTP.  Each handler works
// on the workspace of the calling browser session; flows that decide a
// navigation record it in the request's mailbox and leave the response
// unwritten so that middleware.Navigate can answer with a 303.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/admitcard"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/middleware"
	"github.com/iliyamo/admission-portal/internal/queue"
	queue_publisher "github.com/iliyamo/admission-portal/internal/service"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

// PortalHandler bundles what the screens need beyond the workspace.
type PortalHandler struct {
	Events   queue_publisher.Publisher // journey events, may be nil
	Renderer admitcard.Renderer        // admit card document
}

func NewPortalHandler(events queue_publisher.Publisher, r admitcard.Renderer) *PortalHandler {
	return &PortalHandler{Events: events, Renderer: r}
}

// workspaceOf returns the session workspace or fails the request when the
// Session middleware is missing.
func workspaceOf(c echo.Context) (*workspace.Workspace, error) {
	ws := middleware.WorkspaceOf(c)
	if ws == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no session")
	}
	return ws, nil
}

// render writes body unless a navigation is pending.
func render(c echo.Context, status int, body any) error {
	if middleware.PendingNavigation(c) != "" {
		return nil
	}
	return c.JSON(status, body)
}

// idParam parses a positive id path parameter.
func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// remoteStatus maps a remote failure to the status returned to the browser.
func remoteStatus(err error) int {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, gateway.ErrNetwork):
		return http.StatusBadGateway
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publish sends a journey event in the background.  Failures are logged by
// the publisher and otherwise ignored.
func (h *PortalHandler) publish(c echo.Context, ws *workspace.Workspace, ev queue.JourneyEvent) {
	if h.Events == nil {
		return
	}
	ev.SessionID = ws.Store.ID()
	if rec, ok := ws.Store.Record(c.Request().Context()); ok {
		ev.Username = rec.Username
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Events.Publish(ctx, ev)
	}()
}
