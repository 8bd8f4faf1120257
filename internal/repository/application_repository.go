package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/model"
)

// ApplicationRepo creates, lists and updates the current user's applications.
type ApplicationRepo struct{ GW *gateway.Client }

func NewApplicationRepo(gw *gateway.Client) *ApplicationRepo { return &ApplicationRepo{GW: gw} }

// Create uploads a new application with both attachments as
// multipart/form-data (POST /apply/).
func (r *ApplicationRepo) Create(ctx context.Context, in model.NewApplication) (model.Application, error) {
	var form gateway.Form
	form.Add("subcategory_id", strconv.FormatInt(in.SubcategoryID, 10))
	for _, name := range model.TextFieldNames {
		v, _ := in.Fields.Get(name)
		form.Add(name, v)
	}
	form.Add("is_submit", "false")
	for _, f := range []struct {
		name string
		att  *model.Attachment
	}{{model.FieldPhoto, in.Photo}, {model.FieldSignature, in.Signature}} {
		if f.att == nil {
			continue
		}
		form.Attach(gateway.FormFile{Name: f.name, Filename: f.att.Filename, ContentType: f.att.ContentType, Data: f.att.Data})
	}
	var out model.Application
	if err := r.GW.SendMultipart(ctx, "/apply/", form, &out); err != nil {
		return model.Application{}, classify(err)
	}
	return out, nil
}

// Mine lists the current user's applications (GET /my-applications/).  The
// remote service answers 404 when there are none; that is returned as an
// empty list.
func (r *ApplicationRepo) Mine(ctx context.Context) ([]model.Application, error) {
	var out []model.Application
	if err := r.GW.Get(ctx, "/my-applications/", nil, &out); err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// Update replaces the text fields of an application
// (PUT /update-application/{id}/).  Attachments are never part of the body.
func (r *ApplicationRepo) Update(ctx context.Context, id int64, fields model.TextFields) (model.Application, error) {
	var out model.Application
	if err := r.GW.SendJSON(ctx, http.MethodPut, updatePath(id), fields, &out); err != nil {
		return model.Application{}, classify(err)
	}
	return out, nil
}

// Patch sends a partial update (PATCH /update-application/{id}/).
func (r *ApplicationRepo) Patch(ctx context.Context, id int64, changes map[string]any) (model.Application, error) {
	for _, k := range []string{model.FieldPhoto, model.FieldSignature} {
		if _, ok := changes[k]; ok {
			return model.Application{}, fmt.Errorf("patch: %s cannot be changed after creation", k)
		}
	}
	var out model.Application
	if err := r.GW.SendJSON(ctx, http.MethodPatch, updatePath(id), changes, &out); err != nil {
		return model.Application{}, classify(err)
	}
	return out, nil
}

func updatePath(id int64) string { return "/update-application/" + strconv.FormatInt(id, 10) + "/" }
