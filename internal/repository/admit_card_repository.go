package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
)

// AdmitCardRepo fetches issued admit cards.
type AdmitCardRepo struct{ GW *gateway.Client }

func NewAdmitCardRepo(gw *gateway.Client) *AdmitCardRepo { return &AdmitCardRepo{GW: gw} }

// Get returns the admit card for a subcategory (GET /admit-card/{id}/).
func (r *AdmitCardRepo) Get(ctx context.Context, subcategoryID int64) (model.AdmitCard, error) {
	var out model.AdmitCard
	if err := r.GW.Get(ctx, "/admit-card/"+strconv.FormatInt(subcategoryID, 10)+"/", nil, &out); err != nil {
		return model.AdmitCard{}, classify(err)
	}
	return out, nil
}

// SeatPlanRepo looks up seat plans by roll number.
type SeatPlanRepo struct{ GW *gateway.Client }

func NewSeatPlanRepo(gw *gateway.Client) *SeatPlanRepo { return &SeatPlanRepo{GW: gw} }

// ByRoll returns the seat plans matching roll (GET /seatplans/?roll=).
func (r *SeatPlanRepo) ByRoll(ctx context.Context, roll string) ([]model.SeatPlan, error) {
	var out []model.SeatPlan
	if err := r.GW.Get(ctx, "/seatplans/", url.Values{"roll": {roll}}, &out); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
