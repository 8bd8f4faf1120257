// Package browse lists categories and subcategories and routes a category
// choice either to its subcategories or through login.
package browse

import (
	"context"
	"fmt"

	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
)

// Catalog reads the public listings.  *repository.CategoryRepo satisfies it.
type Catalog interface {
	List(ctx context.Context) ([]model.Category, error)
	Subcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error)
}

// Session reports whether the browser holds a token.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
}

type Browser struct {
	catalog Catalog
	session Session
	nav     nav.Navigator
}

func New(catalog Catalog, s Session, n nav.Navigator) *Browser {
	return &Browser{catalog: catalog, session: s, nav: n}
}

// Categories returns every category.
func (b *Browser) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := b.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Subcategories returns the subcategories of a category.
func (b *Browser) Subcategories(ctx context.Context, categoryID int64) ([]model.Subcategory, error) {
	subs, err := b.catalog.Subcategories(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories of %d: %w", categoryID, err)
	}
	return subs, nil
}

// ViewSubcategories navigates to the subcategories of a category.  An
// anonymous browser is sent to login with the category captured so login
// can return to it.
func (b *Browser) ViewSubcategories(ctx context.Context, categoryID int64) {
	if b.session.IsAuthenticated(ctx) {
		b.nav.Navigate(ctx, nav.Subcategories(categoryID))
		return
	}
	b.nav.Navigate(ctx, nav.LoginFor(categoryID))
}
