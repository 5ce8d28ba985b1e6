package rewrite

import "liveResume/internal/resume"

// Merge parses text and folds it into a copy of doc. On ErrParseFailure the
// returned document is doc unchanged.
func Merge(doc resume.Document, text string) (resume.Document, error) {
	resp, err := ParseResponse(text)
	if err != nil {
		return doc, err
	}
	return Apply(doc, resp), nil
}

// Apply folds a parsed response into a copy of doc:
//   - summary is replaced only by a non-empty value;
//   - experience[i].bullets is replaced for every i covered by the response
//     whose element is not null; entries are never added, removed or reordered;
//   - skills are replaced only by a non-empty list.
//
// Everything else is left alone.
func Apply(doc resume.Document, resp Response) resume.Document {
	next := doc.Clone()

	if resp.Summary != "" {
		next.Summary = resp.Summary
	}

	for i := range next.Experience {
		if i >= len(resp.ExperienceBullets) {
			break
		}
		if bullets := resp.ExperienceBullets[i]; bullets != nil {
			next.Experience[i].Bullets = append(make([]string, 0, len(bullets)), bullets...)
		}
	}

	if len(resp.Skills) > 0 {
		next.Skills = append(make([]string, 0, len(resp.Skills)), resp.Skills...)
	}

	return next
}
