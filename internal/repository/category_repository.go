package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
)

// CategoryRepo reads categories and subcategories.  Both endpoints are public.
type CategoryRepo struct{ GW *gateway.Client }

func NewCategoryRepo(gw *gateway.Client) *CategoryRepo { return &CategoryRepo{GW: gw} }

// List returns every category (GET /posts/).
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := r.GW.Get(ctx, "/posts/", nil, &out); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Subcategories returns the subcategories of one category
// (GET /posts/{id}/subcategories/).
func (r *CategoryRepo) Subcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	var out []model.Subcategory
	path := fmt.Sprintf("/posts/%d/subcategories/", categoryID)
	if err := r.GW.Get(ctx, path, nil, &out); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Subcategory returns one subcategory with its application fee
// (GET /subcategories/{id}/).
func (r *CategoryRepo) Subcategory(ctx context.Context, id int64) (model.Subcategory, error) {
	var out model.Subcategory
	if err := r.GW.Get(ctx, "/subcategories/"+strconv.FormatInt(id, 10)+"/", nil, &out); err != nil {
		return model.Subcategory{}, classify(err)
	}
	return out, nil
}
