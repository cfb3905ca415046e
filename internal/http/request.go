package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/intranet-portal/internal/application"
)

const maxBodyBytes = 8 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and runs the struct validation
// tags. Tag failures come back as an *application.ValidationError so they
// share the 422 response of service validation.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) (err error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadRequestBody
		}
		return errors.Join(errBadRequestBody, err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validateRequest(dst)
}

// normalizer is implemented by requests that clean up their fields before
// the validation tags run.
type normalizer interface {
	normalize()
}

func validateRequest(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.FieldErrors[fieldPath(fe)] = tagMessage(fe)
	}
	return vErr
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "min":
		return "is too short"
	default:
		return "has an invalid value"
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, errBadRequestBody)
}
