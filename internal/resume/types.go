package resume

// Document 是会话中唯一的简历文档：内容字段加展示设置。
// JSON 字段名与前端及生成接口保持一致。
type Document struct {
	Name            string       `json:"name"`
	Title           string       `json:"title"`
	Contact         Contact      `json:"contact"`
	Summary         string       `json:"summary"`
	Skills          []string     `json:"skills"`
	AreasOfInterest []string     `json:"areasOfInterest,omitempty"`
	Projects        []Project    `json:"projects"`
	Education       []Education  `json:"education"`
	Experience      []Experience `json:"experience"`
	Photo           string       `json:"photo,omitempty"`
	Template        Template     `json:"template" validate:"oneof=classic modern"`
	Font            Font         `json:"font" validate:"oneof=sans serif mono inter merri"`
	Color           Color        `json:"color" validate:"oneof=blue gray"`
	Layout          Layout       `json:"layout" validate:"oneof=left right"`
}

// Contact has a fixed shape; website, linkedin and github are optional.
type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type Education struct {
	School  string `json:"school"`
	Degree  string `json:"degree"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Details string `json:"details,omitempty"`
}

// Experience bullets are matched positionally by the rewrite merge, so the
// order of Document.Experience must never change behind the user's back.
type Experience struct {
	Company string   `json:"company"`
	Role    string   `json:"role"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Bullets []string `json:"bullets"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"techStack"`
	LiveLink    string   `json:"liveLink,omitempty"`
}

type (
	Template string
	Font     string
	Color    string
	Layout   string
)

const (
	TemplateClassic Template = "classic"
	TemplateModern  Template = "modern"

	FontSans  Font = "sans"
	FontSerif Font = "serif"
	FontMono  Font = "mono"
	FontInter Font = "inter"
	FontMerri Font = "merri"

	ColorBlue Color = "blue"
	ColorGray Color = "gray"

	// LayoutLeft/LayoutRight 表示编辑器所在的一侧，仅影响展示，但随文档一起导出。
	LayoutLeft  Layout = "left"
	LayoutRight Layout = "right"
)

// Default 返回会话开始时的默认文档，也是唯一合法的“空”状态。
func Default() Document {
	return Document{
		Contact:    Contact{},
		Skills:     []string{},
		Projects:   []Project{},
		Education:  []Education{},
		Experience: []Experience{},
		Template:   TemplateModern,
		Font:       FontSans,
		Color:      ColorBlue,
		Layout:     LayoutRight,
	}
}

// Clone returns a deep copy so that no slice is shared between the store and
// its callers.
func (d Document) Clone() Document {
	out := d
	out.Skills = cloneStrings(d.Skills)
	out.AreasOfInterest = cloneOptionalStrings(d.AreasOfInterest)

	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.TechStack = cloneStrings(p.TechStack)
		out.Projects[i] = p
	}

	out.Education = make([]Education, len(d.Education))
	copy(out.Education, d.Education)

	out.Experience = make([]Experience, len(d.Experience))
	for i, e := range d.Experience {
		e.Bullets = cloneStrings(e.Bullets)
		out.Experience[i] = e
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneOptionalStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return cloneStrings(in)
}
