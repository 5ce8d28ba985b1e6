package llm

import (
	"fmt"
	"strings"

	"liveResume/internal/rewrite"
)

// BuildPrompt renders the career-coach prompt for a rewrite request.
// Empty fields are replaced by neutral placeholders so the model never sees
// a blank line where a value is expected.
func BuildPrompt(req rewrite.Request) string {
	var sb strings.Builder
	sb.WriteString("You are a career coach. Write a concise, professional resume summary (3-4 sentences) and bullet points per role.\n")
	sb.WriteString("Return JSON with keys: summary, experienceBullets (array of bullet arrays), skills (refined top 10).\n\n")

	sb.WriteString("Candidate:\n")
	fmt.Fprintf(&sb, "Name: %s\n", orDefault(req.Name, "Candidate"))
	fmt.Fprintf(&sb, "Title: %s\n", orDefault(req.Title, "Professional"))
	fmt.Fprintf(&sb, "Current summary: %s\n", orDefault(req.Summary, "(none)"))
	fmt.Fprintf(&sb, "Skills: %s\n", orDefault(strings.Join(req.Skills, ", "), "(none)"))
	sb.WriteString("Experience:\n")

	roles := make([]string, 0, len(req.Experience))
	for i, e := range req.Experience {
		roles = append(roles, fmt.Sprintf("#%d %s at %s (%s - %s)\nBullets: %s",
			i+1,
			orDefault(e.Role, "Role"),
			orDefault(e.Company, "Company"),
			orDefault(e.Start, "Start"),
			orDefault(e.End, "End"),
			strings.Join(e.Bullets, " | "),
		))
	}
	sb.WriteString(strings.Join(roles, "\n\n"))
	sb.WriteString("\nOutput strict JSON without code fences.\n")
	return sb.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
