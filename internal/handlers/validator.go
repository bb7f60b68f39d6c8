package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newJSONValidator reports field errors by their JSON names.
func newJSONValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
