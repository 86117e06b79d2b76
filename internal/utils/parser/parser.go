package parser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FieldError reports a query value that does not fit its field.
type FieldError struct {
	Param string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseQuery binds the query string to a struct using the 'form' tag. Empty
// parameters leave the field at its current value, so callers set defaults
// before binding.
func ParseQuery(c *fiber.Ctx, out interface{}) error {
	return bind(c.Query, out)
}

func bind(lookup func(key string, def ...string) string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("output must be a pointer to a struct")
	}

	elem := val.Elem()
	typ := elem.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := strings.Split(field.Tag.Get("form"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		raw := strings.TrimSpace(lookup(name))
		if raw == "" {
			continue
		}
		if err := setFieldValue(elem.Field(i), raw); err != nil {
			return &FieldError{Param: name, Value: raw, Err: err}
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}
