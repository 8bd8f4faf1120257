package repository

import (
	"context"
	"net/http"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
)

// AuthRepo exchanges credentials for tokens.
type AuthRepo struct{ GW *gateway.Client }

func NewAuthRepo(gw *gateway.Client) *AuthRepo { return &AuthRepo{GW: gw} }

// Login posts credentials to /login/ and returns the issued tokens.
func (r *AuthRepo) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	var out model.TokenPair
	if err := r.GW.SendJSON(ctx, http.MethodPost, "/login/", creds, &out); err != nil {
		return model.TokenPair{}, classify(err)
	}
	return out, nil
}

// Register creates an account via /register/.  It does not authenticate.
func (r *AuthRepo) Register(ctx context.Context, reg model.Registration) error {
	return classify(r.GW.SendJSON(ctx, http.MethodPost, "/register/", reg, nil))
}

// Refresh exchanges a refresh token for a new access token via
// /token/refresh/.
func (r *AuthRepo) Refresh(ctx context.Context, refresh string) (model.TokenPair, error) {
	var out model.TokenPair
	body := map[string]string{"refresh": refresh}
	if err := r.GW.SendJSON(ctx, http.MethodPost, "/token/refresh/", body, &out); err != nil {
		return model.TokenPair{}, classify(err)
	}
	return out, nil
}
