package model

import "time"

// Names of the text fields carried by an application form.  They double as
// the JSON and multipart keys used by the remote service.
const (
	FieldStudentName      = "student_name"
	FieldDOB              = "dob"
	FieldGender           = "gender"
	FieldStudentClass     = "student_class"
	FieldFatherName       = "father_name"
	FieldMotherName       = "mother_name"
	FieldContact          = "contact"
	FieldEmail            = "email"
	FieldPreviousSchool   = "previous_school"
	FieldReason           = "reason"
	FieldPresentAddress   = "present_address"
	FieldPermanentAddress = "permanent_address"

	FieldPhoto     = "photo"
	FieldSignature = "signature"
)

// TextFieldNames lists every editable text field in display order.
var TextFieldNames = []string{
	FieldStudentName,
	FieldDOB,
	FieldGender,
	FieldStudentClass,
	FieldFatherName,
	FieldMotherName,
	FieldContact,
	FieldEmail,
	FieldPreviousSchool,
	FieldReason,
	FieldPresentAddress,
	FieldPermanentAddress,
}

// Genders accepted by the remote service.
var Genders = []string{"Male", "Female", "Other"}

// TextFields is the editable, non-binary part of an application.
type TextFields struct {
	StudentName      string `json:"student_name"`
	DOB              string `json:"dob"`
	Gender           string `json:"gender"`
	StudentClass     string `json:"student_class"`
	FatherName       string `json:"father_name"`
	MotherName       string `json:"mother_name"`
	Contact          string `json:"contact"`
	Email            string `json:"email"`
	PreviousSchool   string `json:"previous_school"`
	Reason           string `json:"reason"`
	PresentAddress   string `json:"present_address"`
	PermanentAddress string `json:"permanent_address"`
}

func (f *TextFields) ptr(name string) *string {
	switch name {
	case FieldStudentName:
		return &f.StudentName
	case FieldDOB:
		return &f.DOB
	case FieldGender:
		return &f.Gender
	case FieldStudentClass:
		return &f.StudentClass
	case FieldFatherName:
		return &f.FatherName
	case FieldMotherName:
		return &f.MotherName
	case FieldContact:
		return &f.Contact
	case FieldEmail:
		return &f.Email
	case FieldPreviousSchool:
		return &f.PreviousSchool
	case FieldReason:
		return &f.Reason
	case FieldPresentAddress:
		return &f.PresentAddress
	case FieldPermanentAddress:
		return &f.PermanentAddress
	}
	return nil
}

// Get returns the value of a named field and whether the name is known.
func (f TextFields) Get(name string) (string, bool) {
	p := f.ptr(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set assigns a named field.  It reports false for unknown names.
func (f *TextFields) Set(name, value string) bool {
	p := f.ptr(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Map returns the fields keyed by their wire names.
func (f TextFields) Map() map[string]string {
	out := make(map[string]string, len(TextFieldNames))
	for _, name := range TextFieldNames {
		v, _ := f.Get(name)
		out[name] = v
	}
	return out
}

// Application is an admission form as stored by the remote service.  Photo
// and Signature are URLs of the files uploaded at creation; the client never
// sends them again.
type Application struct {
	ID              int64  `json:"id,omitempty"`
	SubcategoryID   int64  `json:"subcategory,omitempty"`
	ApplicantNumber string `json:"applicant_number,omitempty"`
	RollNumber      string `json:"roll_number,omitempty"`
	TextFields
	Photo     string     `json:"photo,omitempty"`
	Signature string     `json:"signature,omitempty"`
	IsSubmit  bool       `json:"is_submit"`
	IsActive  bool       `json:"is_active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Attachment is an uploaded image bound for the photo or signature field.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the attachment length in bytes.
func (a Attachment) Size() int { return len(a.Data) }

// NewApplication is the create payload: text fields plus both attachments.
type NewApplication struct {
	SubcategoryID int64
	Fields        TextFields
	Photo         *Attachment
	Signature     *Attachment
}
