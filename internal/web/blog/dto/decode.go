// Package dto holds request and response shapes of the blog API.
package dto

import (
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, they are what clients send
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeJSON strictly decodes one JSON object from r into v and validates it.
// Unknown fields, type mismatches and failed `validate` tags are all
// reported as *model.ValidationError.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return model.Invalid("body", "must contain a single JSON object")
	}

	return Validate(v)
}

func decodeError(err error) error {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.Is(err, io.EOF):
		return model.Invalid("body", "is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return model.Invalid(field, "must be %s", typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return model.Invalid("body", "malformed JSON")
	}

	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		if unquoted, uerr := strconv.Unquote(name); uerr == nil {
			name = unquoted
		}
		return model.Invalid(name, "unknown field")
	}

	// e.g. an ObjectID or time that failed its own UnmarshalJSON
	return model.Invalid("body", "%s", err.Error())
}

// Validate runs the `validate` struct tags of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate")
	}

	verr := new(model.ValidationError)
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe), "%s", fieldMessage(fe))
	}
	return verr
}

// fieldPath drops the struct name, `CreatePostRequest.seo.metaTitle` -> `seo.metaTitle`
func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must have at most " + fe.Param() + " items"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "mongodb":
		return "must be a valid id"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid"
	}
}
