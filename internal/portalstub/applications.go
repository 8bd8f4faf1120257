package portalstub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/model"
)

const maxUpload = 5 << 20

// serverRequired are the fields the service itself insists on.  Email and
// addresses are optional on the server.
var serverRequired = []string{
	model.FieldStudentName,
	model.FieldDOB,
	model.FieldGender,
	model.FieldStudentClass,
	model.FieldFatherName,
	model.FieldMotherName,
	model.FieldContact,
}

var maxLen = map[string]int{
	model.FieldStudentName:    100,
	model.FieldFatherName:     100,
	model.FieldMotherName:     100,
	model.FieldStudentClass:   20,
	model.FieldContact:        20,
	model.FieldPreviousSchool: 255,
}

func userID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

// validate checks the text fields present in set.  full requires every
// server-required field.
func validate(f model.TextFields, set map[string]bool, full bool) map[string][]string {
	errs := map[string][]string{}
	for _, name := range serverRequired {
		v, _ := f.Get(name)
		if (full || set[name]) && v == "" {
			errs[name] = []string{"This field may not be blank."}
		}
	}
	if f.DOB != "" {
		if _, err := time.Parse("2006-01-02", f.DOB); err != nil {
			errs[model.FieldDOB] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
		}
	}
	if f.Gender != "" && !slices.Contains(model.Genders, f.Gender) {
		errs[model.FieldGender] = []string{fmt.Sprintf("%q is not a valid choice.", f.Gender)}
	}
	if f.Email != "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			errs[model.FieldEmail] = []string{"Enter a valid email address."}
		}
	}
	for name, n := range maxLen {
		if v, _ := f.Get(name); len(v) > n {
			errs[name] = append(errs[name], fmt.Sprintf("Ensure this field has no more than %d characters.", n))
		}
	}
	return errs
}

// apply: POST /apply/ (multipart).  Photo and signature are required and are
// only accepted here.
func (s *Server) apply(c echo.Context) error {
	subID, err := strconv.ParseInt(c.FormValue("subcategory_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"non_field_errors": []string{"A valid subcategory is required."}})
	}
	if _, ok := s.st.subcategory(subID); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"non_field_errors": []string{"Invalid subcategory."}})
	}
	var app model.Application
	app.SubcategoryID = subID
	for _, name := range model.TextFieldNames {
		app.Set(name, c.FormValue(name))
	}
	errs := validate(app.TextFields, nil, true)
	for _, f := range []struct {
		field, dir string
		dst        *string
	}{
		{model.FieldPhoto, "applicant_photos", &app.Photo},
		{model.FieldSignature, "applicant_signatures", &app.Signature},
	} {
		fh, err := c.FormFile(f.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				errs[f.field] = []string{"No file was submitted."}
			} else {
				errs[f.field] = []string{"The submitted data was not a file. Check the encoding type on the form."}
			}
			continue
		}
		data, ctype, err := readUpload(fh)
		if err != nil {
			errs[f.field] = []string{err.Error()}
			continue
		}
		*f.dst = s.st.putMedia(f.dir, fh.Filename, ctype, data)
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, errs)
	}
	created, err := s.st.createApplication(userID(c), app)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"non_field_errors": []string{err.Error()}})
	}
	return c.JSON(http.StatusCreated, created)
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > maxUpload {
		return nil, "", errors.New("Upload a file smaller than 5 MB.")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, "", err
	}
	ctype := http.DetectContentType(data)
	if ctype != "image/jpeg" && ctype != "image/png" {
		return nil, "", errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return data, ctype, nil
}

// myApplications: GET /my-applications/.  404 when the user has none.
func (s *Server) myApplications(c echo.Context) error {
	apps := s.st.applicationsOf(userID(c))
	if len(apps) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No applications found."})
	}
	return c.JSON(http.StatusOK, apps)
}

// updateApplication: PUT|PATCH /update-application/:id/ with a JSON body.
// Both are partial.  Attachments are refused; a submitted application is
// locked with 403.
func (s *Server) updateApplication(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<20)).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "JSON parse error"})
	}
	for _, k := range []string{model.FieldPhoto, model.FieldSignature} {
		if _, ok := body[k]; ok {
			return c.JSON(http.StatusBadRequest, echo.Map{k: []string{"This field cannot be changed after the application is created."}})
		}
	}
	var fieldErrs map[string][]string
	updated, err := s.st.updateApplication(userID(c), id, func(a *model.Application) error {
		set := map[string]bool{}
		for _, name := range model.TextFieldNames {
			raw, ok := body[name]
			if !ok {
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				fieldErrs = map[string][]string{name: {"Not a valid string."}}
				return errInvalid
			}
			a.Set(name, v)
			set[name] = true
		}
		for _, flag := range []struct {
			key string
			dst *bool
		}{{"is_submit", &a.IsSubmit}, {"is_active", &a.IsActive}} {
			raw, ok := body[flag.key]
			if !ok {
				continue
			}
			var v bool
			if err := json.Unmarshal(raw, &v); err != nil {
				fieldErrs = map[string][]string{flag.key: {"Must be a valid boolean."}}
				return errInvalid
			}
			*flag.dst = v
		}
		if errs := validate(a.TextFields, set, false); len(errs) > 0 {
			fieldErrs = errs
			return errInvalid
		}
		return nil
	})
	switch {
	case errors.Is(err, errInvalid):
		return c.JSON(http.StatusBadRequest, fieldErrs)
	case errors.Is(err, errNotOwned):
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
	case errors.Is(err, errAlreadyFinal):
		return c.JSON(http.StatusForbidden, echo.Map{"message": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, updated)
}

// admitCard: GET /admit-card/:id/ for the caller's application in that
// subcategory.
func (s *Server) admitCard(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	card, ok := s.st.admitCard(userID(c), id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Application not found"})
	}
	return c.JSON(http.StatusOK, card)
}
