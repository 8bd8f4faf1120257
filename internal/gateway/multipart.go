package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Form is a multipart/form-data body: ordered text fields and files.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is one text part.
type FormField struct{ Name, Value string }

// FormFile is one file part.
type FormFile struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// Add appends a text field.
func (f *Form) Add(name, value string) { f.Fields = append(f.Fields, FormField{name, value}) }

// Attach appends a file.
func (f *Form) Attach(file FormFile) { f.Files = append(f.Files, file) }

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, fld := range f.Fields {
		if err := w.WriteField(fld.Name, fld.Value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Name), quoteEscaper.Replace(file.Filename)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// SendMultipart POSTs form to path.
func (c *Client) SendMultipart(ctx context.Context, path string, form Form, out any) error {
	body, ct, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode multipart: %w", err)
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, ContentType: ct}, out)
}
