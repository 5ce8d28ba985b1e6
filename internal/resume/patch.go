package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field records whether a top-level key was present in a patch and whether
// it carried JSON null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Set builds a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null builds a present field carrying null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Patch 是对文档顶层字段的部分更新。缺失的键保持不变；出现的键整体覆盖（不做深合并）。
type Patch struct {
	Name            Field[string]       `json:"name"`
	Title           Field[string]       `json:"title"`
	Contact         Field[Contact]      `json:"contact"`
	Summary         Field[string]       `json:"summary"`
	Skills          Field[[]string]     `json:"skills"`
	AreasOfInterest Field[[]string]     `json:"areasOfInterest"`
	Projects        Field[[]Project]    `json:"projects"`
	Education       Field[[]Education]  `json:"education"`
	Experience      Field[[]Experience] `json:"experience"`
	Photo           Field[string]       `json:"photo"`
	Template        Field[Template]     `json:"template"`
	Font            Field[Font]         `json:"font"`
	Color           Field[Color]        `json:"color"`
	Layout          Field[Layout]       `json:"layout"`
}

// Keys lists the top-level keys present in the patch, in document order.
func (p Patch) Keys() []string {
	var keys []string
	p.each(func(key string, set, _, _ bool) {
		if set {
			keys = append(keys, key)
		}
	})
	return keys
}

// Empty reports whether no key is present.
func (p Patch) Empty() bool {
	return len(p.Keys()) == 0
}

// Check rejects null on required keys. Optional keys (photo, areasOfInterest)
// may be null, which clears them.
func (p Patch) Check() error {
	var err error
	p.each(func(key string, set, null, optional bool) {
		if err == nil && set && null && !optional {
			err = fmt.Errorf("%w: %s", ErrNullField, key)
		}
	})
	return err
}

func (p Patch) each(fn func(key string, set, null, optional bool)) {
	fn("name", p.Name.Set, p.Name.Null, false)
	fn("title", p.Title.Set, p.Title.Null, false)
	fn("contact", p.Contact.Set, p.Contact.Null, false)
	fn("summary", p.Summary.Set, p.Summary.Null, false)
	fn("skills", p.Skills.Set, p.Skills.Null, false)
	fn("areasOfInterest", p.AreasOfInterest.Set, p.AreasOfInterest.Null, true)
	fn("projects", p.Projects.Set, p.Projects.Null, false)
	fn("education", p.Education.Set, p.Education.Null, false)
	fn("experience", p.Experience.Set, p.Experience.Null, false)
	fn("photo", p.Photo.Set, p.Photo.Null, true)
	fn("template", p.Template.Set, p.Template.Null, false)
	fn("font", p.Font.Set, p.Font.Null, false)
	fn("color", p.Color.Set, p.Color.Null, false)
	fn("layout", p.Layout.Set, p.Layout.Null, false)
}

// Apply returns doc with every present key of p overwritten. doc itself is
// not modified. The result is validated; on error the caller keeps doc.
func (p Patch) Apply(doc Document) (Document, error) {
	if err := p.Check(); err != nil {
		return doc, err
	}

	next := doc.Clone()
	if p.Name.Set {
		next.Name = p.Name.Value
	}
	if p.Title.Set {
		next.Title = p.Title.Value
	}
	if p.Contact.Set {
		next.Contact = p.Contact.Value
	}
	if p.Summary.Set {
		next.Summary = p.Summary.Value
	}
	if p.Skills.Set {
		next.Skills = cloneStrings(p.Skills.Value)
	}
	if p.AreasOfInterest.Set {
		next.AreasOfInterest = cloneOptionalStrings(p.AreasOfInterest.Value)
	}
	if p.Projects.Set {
		next.Projects = p.Projects.Value
	}
	if p.Education.Set {
		next.Education = p.Education.Value
	}
	if p.Experience.Set {
		next.Experience = p.Experience.Value
	}
	if p.Photo.Set {
		next.Photo = p.Photo.Value
	}
	if p.Template.Set {
		next.Template = p.Template.Value
	}
	if p.Font.Set {
		next.Font = p.Font.Value
	}
	if p.Color.Set {
		next.Color = p.Color.Value
	}
	if p.Layout.Set {
		next.Layout = p.Layout.Value
	}

	// 再克隆一次，避免与补丁共享切片。
	next = next.Clone()
	next.Normalize()
	if err := next.Validate(); err != nil {
		return doc, err
	}
	return next, nil
}
