// Package forms holds the transient drafts behind the login, registration
// and apply interactions: typed field values, a declarative validation rule
// set evaluated on every change, per-field touched flags, and a working
// flag that serializes submission. Drafts are never persisted.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/movement-pass/passctl/internal/apiclient"
)

// GenericFailureMessage is shown for transport failures; retries are always
// user-initiated.
const GenericFailureMessage = "An unexpected error has occurred, please try again!"

var (
	// ErrSubmissionInFlight rejects a re-submit while one is pending.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrDraftInvalid means client-side validation blocked the submit; the
	// per-field errors carry the details.
	ErrDraftInvalid = errors.New("draft has validation errors")
)

var (
	mobilePhonePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)
	ddmmyyyyPattern    = regexp.MustCompile(`^\d{8}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return fld.Name
	})

	mustRegister(v, "bd_mobile", func(fl validator.FieldLevel) bool {
		return mobilePhonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "ddmmyyyy", func(fl validator.FieldLevel) bool {
		return ddmmyyyyPattern.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("forms: register " + tag + ": " + err.Error())
	}
}

// state is the per-draft interaction bookkeeping shared by all forms.
type state struct {
	touched   map[string]bool
	errors    map[string]string
	submitted bool
	working   bool
	banner    string
}

func newState() state {
	return state{touched: map[string]bool{}, errors: map[string]string{}}
}

func (s *state) touch(field string) {
	s.touched[field] = true
}

// ShowError reports whether a field's error should be displayed: only after
// the field was interacted with or a submit was attempted.
func (s *state) ShowError(field string) bool {
	return s.errors[field] != "" && (s.touched[field] || s.submitted)
}

// ErrorText returns the displayable error for a field, or "".
func (s *state) ErrorText(field string) string {
	if !s.ShowError(field) {
		return ""
	}
	return s.errors[field]
}

// FieldError returns the raw validation error for a field regardless of
// touched state.
func (s *state) FieldError(field string) string {
	return s.errors[field]
}

// Errors returns a copy of every current field error keyed by field name.
func (s *state) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for field, msg := range s.errors {
		out[field] = msg
	}
	return out
}

// Working reports whether a submission is in flight.
func (s *state) Working() bool {
	return s.working
}

// Banner returns the failure message of the last submit attempt, if any.
func (s *state) Banner() string {
	return s.banner
}

func (s *state) beginSubmit() error {
	if s.working {
		return ErrSubmissionInFlight
	}
	s.submitted = true
	s.working = true
	s.banner = ""
	return nil
}

func (s *state) endSubmit(err error) error {
	s.working = false
	if err == nil {
		return nil
	}
	if list, ok := apiclient.AsErrorList(err); ok {
		s.banner = list.First()
	} else {
		s.banner = GenericFailureMessage
	}
	return err
}

// collect translates validator output into the per-field error map.
func (s *state) collect(err error, labels map[string]string) bool {
	s.errors = map[string]string{}
	if err == nil {
		return true
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		s.errors[""] = err.Error()
		return false
	}

	for _, fe := range fieldErrors {
		field := fe.Field()
		if _, dup := s.errors[field]; dup {
			continue
		}
		s.errors[field] = message(labels[field], fe)
	}
	return len(s.errors) == 0
}

func message(label string, fe validator.FieldError) string {
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required", "required_if":
		return label + " is a required field"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be %s or less", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be %s or more", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "bd_mobile":
		return "Invalid mobile phone number, must be 11 character digit"
	case "ddmmyyyy":
		return "Invalid date of birth, must be in ddmmyyyy format"
	}
	return label + " is invalid"
}
