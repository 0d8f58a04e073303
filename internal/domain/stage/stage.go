// Package stage validates the create-stage form and derives the stage
// attributes shown next to it.
package stage

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Stage types by minimum round count.
const (
	TypeShort  = "Short"
	TypeMedium = "Medium"
	TypeLong   = "Long"
)

// Form is the create-stage input.
type Form struct {
	Name            string `json:"name" form:"name" validate:"required"`
	Description     string `json:"description,omitempty" form:"description"`
	DesignerID      int    `json:"designer" form:"designer" validate:"min=1"`
	Papers          int    `json:"papers" form:"papers" validate:"min=0"`
	Noshoots        int    `json:"noshoots" form:"noshoots" validate:"min=0"`
	Poppers         int    `json:"poppers" form:"poppers" validate:"min=0"`
	GunCondition    int    `json:"gunCondition" form:"gunCondition" validate:"min=1,max=3"`
	WalkthroughTime int    `json:"walkthroughTime" form:"walkthroughTime" validate:"min=0"`
}

// Attributes are the values derived from a stage layout.
type Attributes struct {
	MinRounds int    `json:"minRounds"`
	MaxScore  int    `json:"maxScore"`
	StageType string `json:"stageType"`
}

// ComputeAttributes derives minimum rounds, maximum score and type: every paper
// needs two hits, every popper one, and each hit is worth five points.
func ComputeAttributes(papers, poppers int) Attributes {
	minRounds := papers*2 + poppers
	a := Attributes{MinRounds: minRounds, MaxScore: minRounds * 5}
	switch {
	case minRounds <= 12:
		a.StageType = TypeShort
	case minRounds <= 24:
		a.StageType = TypeMedium
	default:
		a.StageType = TypeLong
	}
	return a
}

// Attributes derives the stage attributes of f.
func (f Form) Attributes() Attributes {
	return ComputeAttributes(f.Papers, f.Poppers)
}

// DesignerRef connects a stage to an existing designer.
type DesignerRef struct {
	Connect struct {
		ID int `json:"id"`
	} `json:"connect"`
}

// CreateInput is the createOneStage data payload.
type CreateInput struct {
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Papers          int         `json:"papers"`
	Noshoots        int         `json:"noshoots"`
	Poppers         int         `json:"poppers"`
	GunCondition    int         `json:"gunCondition"`
	WalkthroughTime int         `json:"walkthroughTime"`
	MinRounds       int         `json:"minRounds"`
	MaxScore        int         `json:"maxScore"`
	StageType       string      `json:"stageType"`
	Designer        DesignerRef `json:"designer"`
}

// CreateInput builds the mutation payload for a validated form.
func (f Form) CreateInput() CreateInput {
	a := f.Attributes()
	in := CreateInput{
		Name:            strings.TrimSpace(f.Name),
		Description:     f.Description,
		Papers:          f.Papers,
		Noshoots:        f.Noshoots,
		Poppers:         f.Poppers,
		GunCondition:    f.GunCondition,
		WalkthroughTime: f.WalkthroughTime,
		MinRounds:       a.MinRounds,
		MaxScore:        a.MaxScore,
		StageType:       a.StageType,
	}
	in.Designer.Connect.ID = f.DesignerID
	return in
}

// Validator checks stage forms and renders English violation messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a Validator with English translations registered.
func NewValidator() (*Validator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	return &Validator{validate: v, trans: trans}, nil
}

// Validate returns a *ValidationError when f is rejected.
func (v *Validator) Validate(f Form) error {
	f.Name = strings.TrimSpace(f.Name)
	err := v.validate.Struct(f)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{Violations: make([]Violation, 0, len(ve))}
	for _, fe := range ve {
		out.Violations = append(out.Violations, Violation{
			Field:     fe.Field(),
			Violation: fe.Tag(),
			Message:   fe.Translate(v.trans),
		})
	}
	return out
}

// ParseForm reads a submitted HTML form. Unparseable numbers are reported
// as violations next to the ones found by Validate.
func ParseForm(values url.Values) (Form, []Violation) {
	var bad []Violation
	num := func(field string) int {
		raw := strings.TrimSpace(values.Get(field))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			bad = append(bad, Violation{Field: field, Violation: "number", Message: field + " must be a whole number"})
		}
		return n
	}
	f := Form{
		Name:            values.Get("name"),
		Description:     values.Get("description"),
		DesignerID:      num("designer"),
		Papers:          num("papers"),
		Noshoots:        num("noshoots"),
		Poppers:         num("poppers"),
		GunCondition:    num("gunCondition"),
		WalkthroughTime: num("walkthroughTime"),
	}
	return f, bad
}
