package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveResume/internal/resume"
)

func renderDoc(t *testing.T, doc resume.Document) *goquery.Document {
	t.Helper()
	html, err := MustNew().Render(doc)
	require.NoError(t, err)
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return dom
}

func TestRender_DefaultDocumentShowsPlaceholders(t *testing.T) {
	dom := renderDoc(t, resume.Default())

	root := dom.Find(RootSelector)
	require.Equal(t, 1, root.Length())
	assert.True(t, root.HasClass("template-modern"))

	assert.Equal(t, "Your Name", root.Find(".name").Text())
	assert.Equal(t, "Professional Title", root.Find(".title").Text())
	assert.Contains(t, root.Find(".summary p").Text(), "concise professional summary")

	src, ok := root.Find(".photo img").Attr("src")
	require.True(t, ok)
	assert.Equal(t, DefaultHeadshot, src)

	for _, section := range []string{".skills", ".interests", ".projects", ".experience", ".education"} {
		assert.Zero(t, root.Find(section).Length(), section)
	}
}

func TestRender_SectionsInOrder(t *testing.T) {
	doc := resume.Default()
	doc.Name = "Ada Lovelace"
	doc.Skills = []string{"Go", "Math"}
	doc.AreasOfInterest = []string{"Engines"}
	doc.Projects = []resume.Project{{Name: "Analytical", TechStack: []string{"Brass"}, LiveLink: "https://example.com"}}
	doc.Experience = []resume.Experience{{Company: "Babbage", Role: "Programmer", Start: "1842", Bullets: []string{"Wrote note G"}}}
	doc.Education = []resume.Education{{School: "Home", Degree: "Tutoring", Details: "Mathematics"}}

	dom := renderDoc(t, doc)

	var order []string
	dom.Find(RootSelector + " > section").Each(func(_ int, s *goquery.Selection) {
		order = append(order, s.AttrOr("class", ""))
	})
	assert.Equal(t, []string{"summary", "skills", "interests", "projects", "experience", "education"}, order)

	assert.Equal(t, 2, dom.Find(".skills li").Length())
	assert.Equal(t, "Wrote note G", dom.Find(".experience .bullets li").Text())
	assert.Contains(t, dom.Find(".experience .muted").Text(), "Present")
	assert.Equal(t, "https://example.com", dom.Find(".projects a.live").AttrOr("href", ""))
}

func TestRender_EscapesContent(t *testing.T) {
	doc := resume.Default()
	doc.Name = `<script>alert(1)</script>`

	html, err := MustNew().Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRender_PhotoUsedVerbatim(t *testing.T) {
	doc := resume.Default()
	doc.Photo = "data:image/png;base64,iVBORw0KGgo="

	dom := renderDoc(t, doc)
	assert.Equal(t, doc.Photo, dom.Find(".photo img").AttrOr("src", ""))
	assert.Equal(t, "Profile photo", dom.Find(".photo img").AttrOr("alt", ""))
}

func TestRender_PresentationSettings(t *testing.T) {
	doc := resume.Default()
	doc.Template = resume.TemplateClassic
	doc.Layout = resume.LayoutLeft
	doc.Font = resume.FontMono
	doc.Color = resume.ColorGray

	html, err := MustNew().Render(doc)
	require.NoError(t, err)
	assert.Contains(t, html, `class="template-classic"`)
	assert.Contains(t, html, "header layout-left")
	assert.Contains(t, html, "monospace")
	assert.Contains(t, html, accents[resume.ColorGray])
}

func TestRender_ContactLabels(t *testing.T) {
	doc := resume.Default()
	doc.Contact = resume.Contact{Email: "a@b.c", LinkedIn: "ada", GitHub: "ada-l"}

	dom := renderDoc(t, doc)
	var items []string
	dom.Find(".contact span").Each(func(_ int, s *goquery.Selection) {
		items = append(items, s.Text())
	})
	assert.Equal(t, []string{"a@b.c", "LinkedIn: ada", "GitHub: ada-l"}, items)
}
