package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/admitcard"
)

// AdmitCard renders the admit card document of a subcategory.
func (h *PortalHandler) AdmitCard(c echo.Context) error {
	return h.admitCard(c, false)
}

// ExportAdmitCard returns the same document as a download.
func (h *PortalHandler) ExportAdmitCard(c echo.Context) error {
	return h.admitCard(c, true)
}

func (h *PortalHandler) admitCard(c echo.Context, download bool) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, _ := idParam(c, "subCategoryId")
	view, err := ws.AdmitCards.Load(c.Request().Context(), sub)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, admitcard.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		return render(c, status, echo.Map{"error": admitcard.Message(err)})
	}
	doc, err := h.Renderer.Render(view)
	if err != nil {
		c.Logger().Errorf("[admitcard] render subcategory=%d: %v", sub, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not render admit card"})
	}
	if download {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", admitcard.ExportFilename))
	}
	return c.HTMLBlob(http.StatusOK, doc)
}
