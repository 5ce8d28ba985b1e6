package resume

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidDocument 表示文档（或补丁）中的展示枚举值非法。
	ErrInvalidDocument = errors.New("invalid document")
	// ErrNullField 表示补丁试图把必填字段置为 null。
	ErrNullField = errors.New("required field cannot be null")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the presentation enums. Content fields are free text and
// may be empty.
func (d Document) Validate() error {
	err := documentValidator().Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s must be one of [%s], got %q", strings.ToLower(fe.Field()), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(parts, "; "))
}

// Normalize replaces nil sequences with empty ones so a decoded document is
// always fully defined. AreasOfInterest stays nil when absent.
func (d *Document) Normalize() {
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	for i := range d.Projects {
		if d.Projects[i].TechStack == nil {
			d.Projects[i].TechStack = []string{}
		}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	for i := range d.Experience {
		if d.Experience[i].Bullets == nil {
			d.Experience[i].Bullets = []string{}
		}
	}
}
