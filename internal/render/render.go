// Package render turns a resume document into the HTML page that is both
// previewed and captured for export.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"liveResume/internal/resume"
)

// RootSelector is the element every export captures.
const RootSelector = "#resume-root"

// RootWidth is the CSS width of the render root in pixels.
const RootWidth = 850

// DefaultHeadshot is shown when the document carries no photo.
const DefaultHeadshot = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSI4MCIgaGVpZ2h0PSI4MCIgdmlld0JveD0iMCAwIDgwIDgwIj48cmVjdCB3aWR0aD0iODAiIGhlaWdodD0iODAiIGZpbGw9IiNlNWU3ZWIiLz48Y2lyY2xlIGN4PSI0MCIgY3k9IjMwIiByPSIxNCIgZmlsbD0iIzljYTNhZiIvPjxwYXRoIGQ9Ik0xNCA3MmMwLTE0IDEyLTI0IDI2LTI0czI2IDEwIDI2IDI0eiIgZmlsbD0iIzljYTNhZiIvPjwvc3ZnPg=="

const (
	placeholderName    = "Your Name"
	placeholderTitle   = "Professional Title"
	placeholderSummary = "Write a concise professional summary highlighting your value and key strengths."
)

var fontFamilies = map[resume.Font]string{
	resume.FontSans:  `ui-sans-serif, system-ui, -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`,
	resume.FontSerif: `ui-serif, Georgia, Cambria, "Times New Roman", Times, serif`,
	resume.FontMono:  `ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, monospace`,
	resume.FontInter: `"Inter", ui-sans-serif, system-ui, sans-serif`,
	resume.FontMerri: `"Merriweather", Georgia, serif`,
}

var accents = map[resume.Color]string{
	resume.ColorBlue: "#2563eb",
	resume.ColorGray: "#4b5563",
}

// Renderer is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("resume").Funcs(template.FuncMap{
		"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse resume template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew 用于启动阶段，模板解析失败直接 panic。
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render is a pure function of doc.
func (r *Renderer) Render(doc resume.Document) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, newView(doc)); err != nil {
		return "", fmt.Errorf("render resume: %w", err)
	}
	return buf.String(), nil
}

type view struct {
	Width      int
	Template   resume.Template
	Layout     resume.Layout
	FontFamily string
	Accent     string

	Photo    template.URL
	HasPhoto bool

	Name    string
	Title   string
	Contact []string
	Summary string

	Skills          []string
	AreasOfInterest []string
	Projects        []projectView
	Experience      []experienceView
	Education       []educationView
}

type projectView struct {
	Name        string
	Description string
	LiveLink    string
	TechStack   []string
}

type experienceView struct {
	Role    string
	Company string
	Start   string
	End     string
	Bullets []string
}

type educationView struct {
	Degree  string
	School  string
	Start   string
	End     string
	Details string
}

func newView(doc resume.Document) view {
	v := view{
		Width:           RootWidth,
		Template:        doc.Template,
		Layout:          doc.Layout,
		FontFamily:      fontFamilies[doc.Font],
		Accent:          accents[doc.Color],
		Name:            or(doc.Name, placeholderName),
		Title:           or(doc.Title, placeholderTitle),
		Summary:         or(doc.Summary, placeholderSummary),
		Skills:          doc.Skills,
		AreasOfInterest: doc.AreasOfInterest,
	}
	if v.FontFamily == "" {
		v.FontFamily = fontFamilies[resume.FontSans]
	}
	if v.Accent == "" {
		v.Accent = accents[resume.ColorBlue]
	}

	// 照片是不透明字符串，原样作为 img src 使用。
	if strings.TrimSpace(doc.Photo) != "" {
		v.Photo = template.URL(doc.Photo)
		v.HasPhoto = true
	} else {
		v.Photo = template.URL(DefaultHeadshot)
	}

	c := doc.Contact
	for _, item := range []string{c.Email, c.Phone, c.Location, c.Website} {
		if item != "" {
			v.Contact = append(v.Contact, item)
		}
	}
	if c.LinkedIn != "" {
		v.Contact = append(v.Contact, "LinkedIn: "+c.LinkedIn)
	}
	if c.GitHub != "" {
		v.Contact = append(v.Contact, "GitHub: "+c.GitHub)
	}

	for _, p := range doc.Projects {
		v.Projects = append(v.Projects, projectView{
			Name:        or(p.Name, "Project"),
			Description: p.Description,
			LiveLink:    p.LiveLink,
			TechStack:   p.TechStack,
		})
	}
	for _, e := range doc.Experience {
		v.Experience = append(v.Experience, experienceView{
			Role:    or(e.Role, "Role"),
			Company: or(e.Company, "Company"),
			Start:   or(e.Start, "Start"),
			End:     or(e.End, "Present"),
			Bullets: e.Bullets,
		})
	}
	for _, ed := range doc.Education {
		v.Education = append(v.Education, educationView{
			Degree:  or(ed.Degree, "Degree"),
			School:  or(ed.School, "School"),
			Start:   or(ed.Start, "Start"),
			End:     or(ed.End, "End"),
			Details: ed.Details,
		})
	}
	return v
}

func or(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
