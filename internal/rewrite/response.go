package rewrite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Response is the generation result. Every key is optional.
// A nil element of ExperienceBullets means "keep that entry's bullets".
type Response struct {
	Summary           string     `json:"summary,omitempty"`
	ExperienceBullets [][]string `json:"experienceBullets"`
	Skills            []string   `json:"skills,omitempty"`
}

const responseSchemaJSON = `{
  "type": "object",
  "properties": {
    "summary": {"type": ["string", "null"]},
    "experienceBullets": {
      "type": ["array", "null"],
      "items": {
        "type": ["array", "null"],
        "items": {"type": "string"}
      }
    },
    "skills": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  }
}`

var responseSchema = mustSchema(responseSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile rewrite response schema: %v", err))
	}
	return schema
}

// ParseResponse decodes the raw generation text. Markdown code fences around
// the JSON are tolerated.
func ParseResponse(text string) (Response, error) {
	cleaned := CleanJSONBlock(text)
	if cleaned == "" {
		return Response{}, fmt.Errorf("%w: empty response", ErrParseFailure)
	}

	result, err := responseSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		// 无法解析为 JSON。
		return Response{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return Response{}, fmt.Errorf("%w: %s", ErrParseFailure, strings.Join(msgs, "; "))
	}

	var resp Response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return resp, nil
}

// CleanJSONBlock strips a surrounding ```json ... ``` (or bare ```) fence.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		lang := text[:idx]
		if len(lang) < 20 && !strings.ContainsAny(lang, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
