package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/admission"
	"github.com/iliyamo/admission-portal/internal/model"
	"github.com/iliyamo/admission-portal/internal/nav"
	"github.com/iliyamo/admission-portal/internal/queue"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

// formView is the JSON shape of both form screens.
type formView struct {
	SubcategoryID int64                 `json:"subcategory_id"`
	State         string                `json:"state"`
	Fields        model.TextFields      `json:"fields"`
	Required      []string              `json:"required"`
	Application   *model.Application    `json:"application,omitempty"`
	Attachments   map[string]bool       `json:"attachments,omitempty"`
	Errors        admission.FieldErrors `json:"errors,omitempty"`
	FormError     string                `json:"form_error,omitempty"`
	CanEdit       bool                  `json:"can_edit"`
	CanSubmit     bool                  `json:"can_submit"`
	CanProceed    bool                  `json:"can_proceed"`
	Message       string                `json:"message,omitempty"`
	Next          string                `json:"next,omitempty"`
}

func viewOf(ctrl *admission.Controller) formView {
	v := formView{
		SubcategoryID: ctrl.SubcategoryID(),
		State:         ctrl.State().String(),
		Fields:        ctrl.Fields(),
		Required:      admission.Required,
		Errors:        ctrl.Errors(),
		FormError:     ctrl.FormError(),
		CanEdit:       ctrl.CanEdit(),
		CanSubmit:     ctrl.CanSubmit(),
		CanProceed:    ctrl.CanProceed(),
	}
	if rec, ok := ctrl.Record(); ok {
		v.Application = &rec
	}
	if ctrl.State() == admission.StateEditingNew {
		v.Attachments = map[string]bool{
			model.FieldPhoto:     ctrl.HasAttachment(model.FieldPhoto),
			model.FieldSignature: ctrl.HasAttachment(model.FieldSignature),
		}
	}
	return v
}

// controllerStatus maps a controller error to an HTTP status.
func controllerStatus(err error) int {
	switch {
	case errors.Is(err, admission.ErrInvalid), errors.Is(err, admission.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, admission.ErrSubmitted):
		return http.StatusForbidden
	case errors.Is(err, admission.ErrTransition), errors.Is(err, admission.ErrBusy), errors.Is(err, admission.ErrClosed):
		return http.StatusConflict
	}
	return remoteStatus(err)
}

// ApplyForm opens a fresh application form for a subcategory.
func (h *PortalHandler) ApplyForm(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subcategory id"})
	}
	ctrl := ws.OpenForm(workspace.ScreenApply, sub)
	if err := ctrl.Begin(); err != nil {
		return c.JSON(controllerStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, viewOf(ctrl))
}

// Apply creates the application from a multipart form carrying the text
// fields, the photo and the signature.  Validation failures never reach the
// remote service.
func (h *PortalHandler) Apply(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subcategory id"})
	}
	ctrl, ok := ws.Form(workspace.ScreenApply, sub)
	if !ok || ctrl.State() != admission.StateEditingNew {
		ctrl = ws.OpenForm(workspace.ScreenApply, sub)
		if err := ctrl.Begin(); err != nil {
			return c.JSON(controllerStatus(err), echo.Map{"error": err.Error()})
		}
	}

	for _, name := range model.TextFieldNames {
		if v, present := formValue(c, name); present {
			if err := ctrl.SetField(name, v); err != nil {
				return c.JSON(controllerStatus(err), echo.Map{"error": err.Error()})
			}
		}
	}
	attachErrs := admission.FieldErrors{}
	for _, field := range []string{model.FieldPhoto, model.FieldSignature} {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}
		a, err := readAttachment(fh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if err := ctrl.Attach(field, a); errors.Is(err, admission.ErrInvalid) {
			attachErrs[field] = ctrl.Errors()[field]
		} else if err != nil {
			return c.JSON(controllerStatus(err), echo.Map{"error": err.Error()})
		}
	}
	if len(attachErrs) > 0 {
		ctrl.Validate()
		v := viewOf(ctrl)
		if v.Errors == nil {
			v.Errors = admission.FieldErrors{}
		}
		maps.Copy(v.Errors, attachErrs)
		return c.JSON(http.StatusBadRequest, v)
	}

	err = ctrl.Create(c.Request().Context())
	if errors.Is(err, admission.ErrClosed) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "form was replaced"})
	}
	if err != nil {
		return render(c, controllerStatus(err), viewOf(ctrl))
	}
	v := viewOf(ctrl)
	if v.Application != nil {
		h.publish(c, ws, queue.JourneyEvent{
			Type:            queue.EventApplicationCreated,
			SubcategoryID:   sub,
			ApplicationID:   v.Application.ID,
			ApplicantNumber: v.Application.ApplicantNumber,
		})
	}
	v.Message = "Application Submitted Successfully!"
	v.Next = nav.Submitted(sub)
	return c.JSON(http.StatusCreated, v)
}

// formValue reads a text field from a multipart or urlencoded body and
// reports whether it was sent at all.
func formValue(c echo.Context, name string) (string, bool) {
	r := c.Request()
	if r.MultipartForm == nil && r.PostForm == nil {
		_ = r.ParseMultipartForm(32 << 20)
	}
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			return vs[0], true
		}
	}
	if vs, ok := r.PostForm[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

// readAttachment loads an uploaded file, keeping one byte past the size
// limit so oversize files are still reported as such.
func readAttachment(fh *multipart.FileHeader) (model.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, admission.MaxAttachmentBytes+1))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return model.Attachment{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

// submittedForm returns the open resume controller for sub, loading the
// user's application into a new one when none is open.
func submittedForm(c echo.Context, ws *workspace.Workspace, sub int64) (*admission.Controller, error) {
	if ctrl, ok := ws.Form(workspace.ScreenSubmitted, sub); ok && ctrl.State() != admission.StateEmpty {
		return ctrl, nil
	}
	ctrl := ws.OpenForm(workspace.ScreenSubmitted, sub)
	return ctrl, ctrl.Load(c.Request().Context())
}

// Submitted shows the user's saved application.
func (h *PortalHandler) Submitted(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subcategory id"})
	}
	ctrl := ws.OpenForm(workspace.ScreenSubmitted, sub)
	if err := ctrl.Load(c.Request().Context()); err != nil {
		return render(c, controllerStatus(err), viewOf(ctrl))
	}
	status := http.StatusOK
	if ctrl.State() == admission.StateNotFound {
		status = http.StatusNotFound
	}
	return render(c, status, viewOf(ctrl))
}

// SubmittedAction runs one of the resume screen's actions: edit, save,
// cancel, submit or proceed.
func (h *PortalHandler) SubmittedAction(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subcategory id"})
	}
	ctrl, err := submittedForm(c, ws, sub)
	if err != nil {
		return render(c, controllerStatus(err), viewOf(ctrl))
	}
	ctx := c.Request().Context()

	switch action := c.Param("action"); action {
	case "edit":
		err = ctrl.Edit()
	case "cancel":
		err = ctrl.Cancel()
	case "save":
		fields, ferr := textFields(c)
		if ferr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ferr.Error()})
		}
		for name, v := range fields {
			if err = ctrl.SetField(name, v); err != nil {
				break
			}
		}
		if err == nil {
			err = ctrl.Save(ctx)
		}
	case "submit":
		if err = ctrl.Submit(ctx); err == nil {
			ev := queue.JourneyEvent{Type: queue.EventApplicationSubmitted, SubcategoryID: sub}
			if rec, ok := ctrl.Record(); ok {
				ev.ApplicationID, ev.ApplicantNumber = rec.ID, rec.ApplicantNumber
			}
			h.publish(c, ws, ev)
		}
	case "proceed":
		err = ctrl.ProceedToPayment(c.Request().Context())
	default:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown action " + action})
	}
	if err != nil {
		body := viewOf(ctrl)
		if body.FormError == "" && !errors.Is(err, admission.ErrInvalid) && len(body.Errors) == 0 {
			body.FormError = actionMessage(err)
		}
		return render(c, controllerStatus(err), body)
	}
	return render(c, http.StatusOK, viewOf(ctrl))
}

func actionMessage(err error) string {
	switch {
	case errors.Is(err, admission.ErrSubmitted):
		return "This application has already been submitted."
	case errors.Is(err, admission.ErrBusy):
		return "Please wait for the current request to finish."
	}
	return err.Error()
}

// textFields reads the save payload from a JSON object or a form body.
func textFields(c echo.Context) (map[string]string, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var m map[string]string
		if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<20)).Decode(&m); err != nil {
			return nil, fmt.Errorf("invalid body: %w", err)
		}
		return m, nil
	}
	params, err := c.FormParams()
	if err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	out := make(map[string]string, len(params))
	for k, vs := range params {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}
