package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/middleware"
	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
)

// subcategoryItem is a subcategory with the links its list entry offers.
type subcategoryItem struct {
	model.Subcategory
	ApplyURL     string `json:"apply_url"`
	SubmittedURL string `json:"submitted_url"`
}

// Home forwards to the category list.
func (h *PortalHandler) Home(c echo.Context) error {
	middleware.Redirect(c, nav.Categories)
	return nil
}

// Categories lists the published categories.  The body does not depend on
// the session so it can be cached.
func (h *PortalHandler) Categories(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	cats, err := ws.Browse.Categories(c.Request().Context())
	if err != nil {
		return render(c, remoteStatus(err), echo.Map{"error": "Failed to load categories"})
	}
	return render(c, http.StatusOK, echo.Map{"items": cats})
}

// ViewCategory is the "view subcategories" action of a category.  Anonymous
// users go to login with the category captured.
func (h *PortalHandler) ViewCategory(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	ws.Browse.ViewSubcategories(c.Request().Context(), id)
	return nil
}

// Subcategories lists the subcategories of a category with their apply and
// resume links.
func (h *PortalHandler) Subcategories(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "postId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	subs, err := ws.Browse.Subcategories(c.Request().Context(), id)
	if err != nil {
		return render(c, remoteStatus(err), echo.Map{"error": "Failed to load subcategories"})
	}
	items := make([]subcategoryItem, 0, len(subs))
	for _, s := range subs {
		items = append(items, subcategoryItem{Subcategory: s, ApplyURL: nav.Apply(s.ID), SubmittedURL: nav.Submitted(s.ID)})
	}
	return render(c, http.StatusOK, echo.Map{"category_id": id, "items": items})
}
