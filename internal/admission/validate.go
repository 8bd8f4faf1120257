package admission

import (
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/iliyamo/admission-portal/internal/model"
)

// MaxAttachmentBytes is the largest photo or signature accepted (2 MiB).
const MaxAttachmentBytes = 2 << 20

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

// Required lists the text fields that must be non-empty.  previous_school
// and reason are optional.
var Required = []string{
	model.FieldStudentName,
	model.FieldDOB,
	model.FieldGender,
	model.FieldStudentClass,
	model.FieldFatherName,
	model.FieldMotherName,
	model.FieldContact,
	model.FieldEmail,
	model.FieldPresentAddress,
	model.FieldPermanentAddress,
}

var (
	contactPattern = regexp.MustCompile(`^\d{10,11}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern    = regexp.MustCompile(`^[A-Za-z\s.]+$`)
	classPattern   = regexp.MustCompile(`^\d+$`)
)

var allowedImageTypes = []string{"image/jpeg", "image/png"}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// IsRequired reports whether a text field must be filled in.
func IsRequired(field string) bool { return slices.Contains(Required, field) }

// ValidateFields checks the text part of a form.
func ValidateFields(f model.TextFields) FieldErrors {
	errs := FieldErrors{}
	for _, name := range Required {
		if v, _ := f.Get(name); strings.TrimSpace(v) == "" {
			errs[name] = "This field is required"
		}
	}
	if f.Contact != "" && !contactPattern.MatchString(f.Contact) {
		errs[model.FieldContact] = "Phone number must be 10-11 digits"
	}
	if f.Email != "" && !ValidEmail(f.Email) {
		errs[model.FieldEmail] = "Invalid email address"
	}
	if f.StudentName != "" && !namePattern.MatchString(f.StudentName) {
		errs[model.FieldStudentName] = "Name must contain only letters, spaces and dots"
	}
	if f.StudentClass != "" && !classPattern.MatchString(f.StudentClass) {
		errs[model.FieldStudentClass] = "Class must be a number"
	}
	if f.Gender != "" && !slices.Contains(model.Genders, f.Gender) {
		errs[model.FieldGender] = "Select Male, Female or Other"
	}
	return errs
}

// SniffImageType returns the detected content type of data.
func SniffImageType(data []byte) string {
	return http.DetectContentType(data)
}

// ValidateAttachment checks one photo or signature and returns the message
// to show, or "" when it is acceptable.  The content type is sniffed from
// the bytes; the declared type is not trusted.
func ValidateAttachment(field string, a *model.Attachment) string {
	if a == nil || a.Size() == 0 {
		if field == model.FieldSignature {
			return "Signature is required"
		}
		return "Photo is required"
	}
	if !slices.Contains(allowedImageTypes, SniffImageType(a.Data)) {
		return "Only JPEG/PNG images allowed"
	}
	if a.Size() > MaxAttachmentBytes {
		return "File size must be less than 2MB"
	}
	return ""
}

// Validate checks a complete create form: text fields and both attachments.
func Validate(f model.TextFields, photo, signature *model.Attachment) FieldErrors {
	errs := ValidateFields(f)
	if msg := ValidateAttachment(model.FieldPhoto, photo); msg != "" {
		errs[model.FieldPhoto] = msg
	}
	if msg := ValidateAttachment(model.FieldSignature, signature); msg != "" {
		errs[model.FieldSignature] = msg
	}
	return errs
}
