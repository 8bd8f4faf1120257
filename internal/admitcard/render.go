package admitcard

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Page size of the printable document: A4 at 96 dpi.
const (
	PageWidth  = 794
	PageHeight = 1123
)

// ExportFilename is the download name of an exported card.
const ExportFilename = "admit-card.html"

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func parser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Renderer turns a View into an HTML document.  MediaBase is prefixed to
// relative photo and signature paths.
type Renderer struct {
	MediaBase string
	Now       func() time.Time
}

type page struct {
	Width, Height int
	Body          template.HTML
	Footer        template.HTML
	Photo         string
	Signature     string
	Date          string
}

var pageTmpl = template.Must(template.New("admit-card").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Admit Card</title>
<style>
.sheet { width: {{.Width}}px; height: {{.Height}}px; box-sizing: border-box; padding: 24px; border: 1px solid #ccc; font-family: sans-serif; position: relative; }
.sheet h1 { text-align: center; text-decoration: underline; }
.photo { position: absolute; top: 100px; right: 40px; width: 160px; text-align: center; }
.photo img { width: 160px; height: 160px; object-fit: cover; border: 2px solid #999; }
.signatures { display: flex; justify-content: space-between; margin-top: 48px; }
.signatures img { height: 64px; }
.footer { text-align: center; font-size: 13px; color: #555; margin-top: 48px; }
</style>
</head>
<body>
<div class="sheet">
<div class="photo">{{if .Photo}}<img src="{{.Photo}}" alt="Applicant Photo">{{else}}<div>No photo</div>{{end}}<p>Applicant Photo</p></div>
{{.Body}}
<div class="signatures">
<div>{{if .Signature}}<img src="{{.Signature}}" alt="Applicant Signature">{{else}}<div>No signature</div>{{end}}<p>Applicant Signature</p></div>
<div><p>Date: {{.Date}}</p><p>Authorized Signatory</p></div>
</div>
<div class="footer">{{.Footer}}</div>
</div>
</body>
</html>
`))

// Render produces the printable document.
func (r Renderer) Render(v View) ([]byte, error) {
	body, err := toHTML(cardMarkdown(v))
	if err != nil {
		return nil, err
	}
	footer, err := toHTML(footerMarkdown(v))
	if err != nil {
		return nil, err
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, page{
		Width:     PageWidth,
		Height:    PageHeight,
		Body:      body,
		Footer:    footer,
		Photo:     r.media(v.Card.Photo),
		Signature: r.media(v.Card.Signature),
		Date:      now().Format("02 Jan 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("render admit card: %w", err)
	}
	return buf.Bytes(), nil
}

func (r Renderer) media(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(r.MediaBase, "/") + path
}

// toHTML converts Markdown to HTML.  Raw HTML in the source is dropped by
// goldmark's default renderer, so the result is safe to embed.
func toHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := parser().Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func cardMarkdown(v View) string {
	c := v.Card
	roll := c.RollNumber
	if roll == "" {
		roll = "Not assigned yet"
	}
	var b strings.Builder
	b.WriteString("# Admit Card\n\n")
	line := func(label, value string) {
		fmt.Fprintf(&b, "**%s:** %s\n\n", label, escape(value))
	}
	line("Name", c.StudentName)
	line("Father's Name", c.FatherName)
	line("Mother's Name", c.MotherName)
	line("Class", c.StudentClass)
	line("Gender", c.Gender)
	line("DOB", c.DOB)
	line("Applicant No", c.ApplicantNumber)
	line("Roll No", roll)
	line("Program", c.PostTitle)
	line("Subcategory", c.SubcategoryName)
	if s := v.Seat; s != nil {
		line("Exam Center", venue(s.ExamCenter, s.Building, s.Floor, s.RoomNo))
		line("Exam Date & Time", examTime(s.ExamDateTime))
	}
	return b.String()
}

func footerMarkdown(v View) string {
	var b strings.Builder
	b.WriteString("This is an electronically generated document and does not require a signature.\n\n")
	b.WriteString("Please bring this admit card to the examination center.\n\n")
	if s := v.Seat; s != nil {
		fmt.Fprintf(&b, "**Exam Venue:** %s\n", escape(venue(s.ExamCenter, s.Building, s.Floor, s.RoomNo)))
	}
	return b.String()
}

func venue(center, building, floor, room string) string {
	return fmt.Sprintf("%s, %s, Floor %s, Room %s", center, building, floor, room)
}

// examTime formats an RFC 3339 timestamp; anything else is shown as sent.
func examTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("02 Jan 2006, 3:04 PM")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`, `~`, `\~`, `&`, `\&`, `!`, `\!`,
)

func escape(s string) string { return mdEscaper.Replace(s) }
