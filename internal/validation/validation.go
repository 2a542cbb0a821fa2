package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewError returns a ValidationError for field.
func NewError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Struct validates v against its `validate` tags and returns the first
// failing field as a *ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewError(fe.Field(), describe(fe))
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// IDPattern matches catalog identifiers such as stage and category ids.
var IDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateID checks a stage/category identifier. These ids are used as
// object-storage path segments, so they must not contain separators.
func ValidateID(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	return IDPattern.MatchString(id)
}

var extPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// FileExtension returns the lowercased extension of filename without the dot,
// or "bin" when the name has no usable extension.
func FileExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !extPattern.MatchString(ext) {
		return "bin"
	}
	return ext
}
