package rewrite

import "liveResume/internal/resume"

// Request is the body sent to the generation endpoint.
type Request struct {
	Name       string              `json:"name"`
	Title      string              `json:"title"`
	Summary    string              `json:"summary"`
	Skills     []string            `json:"skills"`
	Experience []resume.Experience `json:"experience"`
}

// NewRequest snapshots the fields of doc the generator is allowed to see.
func NewRequest(doc resume.Document) Request {
	doc = doc.Clone()
	return Request{
		Name:       doc.Name,
		Title:      doc.Title,
		Summary:    doc.Summary,
		Skills:     doc.Skills,
		Experience: doc.Experience,
	}
}
