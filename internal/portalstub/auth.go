package portalstub

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/utils"
)

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

// registerUser: POST /register/.  Creates the account without logging in.
func (s *Server) registerUser(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username and password required."})
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"email": []string{"Enter a valid email address."}})
		}
	}
	if len(req.Password) < 4 {
		return c.JSON(http.StatusBadRequest, echo.Map{"password": []string{"Ensure this field has at least 4 characters."}})
	}
	if _, err := s.st.addUser(req.Username, req.Email, req.Password, s.cfg.BcryptCost); err != nil {
		if errors.Is(err, errUserExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully"})
}

// login: POST /login/.  Returns access and refresh tokens plus the user.
func (s *Server) login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	fields := map[string][]string{}
	if req.Username == "" {
		fields["username"] = []string{"This field may not be blank."}
	}
	if req.Password == "" {
		fields["password"] = []string{"This field may not be blank."}
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, fields)
	}
	u, ok := s.st.userByName(req.Username)
	if !ok || !utils.VerifyPassword(u.Hash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "No active account found with the given credentials"})
	}
	pair, err := s.issue(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// refreshToken: POST /token/refresh/.  Issues a new access token; the
// refresh token is not rotated.
func (s *Server) refreshToken(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"refresh": []string{"This field is required."}})
	}
	uid, ok := s.st.lookupRefresh(req.Refresh)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Token is invalid or expired", "code": "token_not_valid"})
	}
	u, ok := s.st.userByID(uid)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "User not found", "code": "user_not_found"})
	}
	at, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": at.Token})
}

func (s *Server) issue(u *user) (model.TokenPair, error) {
	at, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.st.saveRefresh(rt.Raw, u.ID, rt.Exp)
	return model.TokenPair{
		Access:   at.Token,
		Refresh:  rt.Raw,
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}, nil
}
