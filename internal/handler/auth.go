package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/auth"
	"github.com/iliyamo/admission-portal/internal/model"
)

// ----- DTOs -----

type loginReq struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	CategoryID int64  `json:"category_id" form:"category_id"`
}

type signupReq struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// pendingCategory reads the captured deep link from ?categoryId=.
func pendingCategory(c echo.Context) int64 {
	id, err := strconv.ParseInt(c.QueryParam("categoryId"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// LoginPage describes the login screen: the captured category, if any, and
// whether the browser is already signed in.
func (h *PortalHandler) LoginPage(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	body := echo.Map{"authenticated": ws.Store.IsAuthenticated(c.Request().Context())}
	if id := pendingCategory(c); id > 0 {
		body["category_id"] = id
	}
	return c.JSON(http.StatusOK, body)
}

// Login signs in and lands on the captured category's subcategories or the
// category list.  The captured category comes from ?categoryId= or the
// category_id field.
func (h *PortalHandler) Login(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pending := pendingCategory(c)
	if pending == 0 && req.CategoryID > 0 {
		pending = req.CategoryID
	}
	err = ws.Auth.Login(c.Request().Context(), model.Credentials{Username: req.Username, Password: req.Password}, pending)
	if err != nil {
		return render(c, http.StatusUnauthorized, echo.Map{"error": auth.Message(err, auth.MsgLoginFailed)})
	}
	return nil
}

// Signup registers an account and moves to the login screen.
func (h *PortalHandler) Signup(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	reg := model.Registration{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := ws.Auth.Signup(c.Request().Context(), reg, req.ConfirmPassword); err != nil {
		return render(c, http.StatusBadRequest, echo.Map{"error": auth.Message(err, auth.MsgSignupFailed)})
	}
	return nil
}

// Logout clears the session, drops open screens and returns to the
// category list.
func (h *PortalHandler) Logout(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	ws.Close()
	if err := ws.Auth.Logout(c.Request().Context()); err != nil {
		c.Logger().Errorf("[logout] %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return nil
}

// RefreshToken exchanges the stored refresh token for a new access token.
func (h *PortalHandler) RefreshToken(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	if err := ws.Auth.Refresh(c.Request().Context()); err != nil {
		if errors.Is(err, auth.ErrNoRefreshToken) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not signed in"})
		}
		return render(c, remoteStatus(err), echo.Map{"error": "token refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "token refreshed"})
}
