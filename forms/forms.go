/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package forms binds raw GraphQL mutation input to validated Go structs.
//
// A form is a struct whose fields carry `form` name tags and `validate`
// rule tags (github.com/go-playground/validator/v10), e.g.
//
//	type createTaskForm struct {
//		Name string `form:"name" validate:"required,max=5"`
//		Size int    `form:"size" validate:"gte=0"`
//	}
//
// Validation failures never raise - they come back as an ordered []FieldError
// so mutations can return them as data.
package forms

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// A FieldError is the validation failures of a single form field.  Messages
// keeps the order the rules were evaluated in.
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// An Argument describes one form field for schema generation: its input
// name, its Go type and whether the field is required.
type Argument struct {
	Name     string
	Type     reflect.Type
	Required bool
}

// A Form is the validation definition built from a form struct T.  Build one
// with New at schema-definition time and reuse it across requests - a Form is
// read-only after New.
type Form[T any] struct {
	fields   []formField
	validate *validator.Validate
}

type formField struct {
	name     string
	rules    string
	typ      reflect.Type
	required bool
}

// A Bound form is the result of binding one input map to the form: the
// decoded data plus any validation errors.
type Bound[T any] struct {
	data   T
	errors []FieldError
}

// New builds the form definition for the struct type T, capturing the
// declared field order.  It panics if T is not a struct - that's a
// programmer error on the level of a broken schema, not a runtime
// condition to recover from.
func New[T any]() *Form[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		panic("forms: the form type must be a struct")
	}

	f := &Form[T]{validate: validator.New(validator.WithRequiredStructEnabled())}

	// Report errors under the form name, not the Go field name.
	f.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fieldName(fld)
	})

	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		if !fld.IsExported() {
			continue
		}
		rules := fld.Tag.Get("validate")
		f.fields = append(f.fields, formField{
			name:     fieldName(fld),
			rules:    rules,
			typ:      fld.Type,
			required: hasRule(rules, "required"),
		})
	}

	return f
}

// Arguments lists the form's fields for mutation argument generation,
// honouring only/exclude filters.  A nil only list means all fields.
func (f *Form[T]) Arguments(only, exclude []string) []Argument {
	var args []Argument
	for _, fld := range f.fields {
		if len(only) > 0 && !contains(only, fld.name) {
			continue
		}
		if contains(exclude, fld.name) {
			continue
		}
		args = append(args, Argument{Name: fld.name, Type: fld.typ, Required: fld.required})
	}
	return args
}

// Bind decodes input into a fresh T and validates it.  Per-field problems -
// both undecodable values and rule failures - come back on the Bound form,
// not as an error.  The error return is for binding itself going wrong
// (programmer error, e.g. input that doesn't decode to a struct at all).
//
// Unknown input keys are ignored.
func (f *Form[T]) Bind(input map[string]interface{}) (*Bound[T], error) {
	bound := &Bound[T]{}
	fieldMsgs := make(map[string][]string)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &bound.data,
		TagName:          "form",
		WeaklyTypedInput: true,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building form decoder")
	}

	if err := dec.Decode(input); err != nil {
		// mapstructure reports per-field decode problems as a joined error;
		// attribute each one to its field so it surfaces as a validation
		// message rather than a fault.
		decErr := &mapstructure.Error{}
		if !errors.As(err, &decErr) {
			return nil, errors.Wrap(err, "binding form input")
		}
		for _, msg := range decErr.Errors {
			name, ok := f.fieldFor(msg)
			if !ok {
				return nil, errors.Errorf("binding form input: %s", msg)
			}
			fieldMsgs[name] = append(fieldMsgs[name], "Enter a valid value.")
		}
	}

	if err := f.validate.Struct(bound.data); err != nil {
		valErrs := validator.ValidationErrors{}
		if !errors.As(err, &valErrs) {
			return nil, errors.Wrap(err, "validating form input")
		}
		for _, fe := range valErrs {
			fieldMsgs[fe.Field()] = append(fieldMsgs[fe.Field()], message(fe))
		}
	}

	// Field declaration order decides error order, to keep client rendering
	// stable across requests.
	for _, fld := range f.fields {
		if msgs, ok := fieldMsgs[fld.name]; ok {
			bound.errors = append(bound.errors, FieldError{Field: fld.name, Messages: msgs})
		}
	}

	return bound, nil
}

// Valid reports whether the bound input passed all the form's rules.
func (b *Bound[T]) Valid() bool {
	return len(b.errors) == 0
}

// Cleaned is the decoded, validated data.  Only meaningful when Valid().
func (b *Bound[T]) Cleaned() T {
	return b.data
}

// Errors is the ordered field errors from binding.  Empty when Valid().
func (b *Bound[T]) Errors() []FieldError {
	return b.errors
}

// fieldFor finds which form field a mapstructure error message talks about.
// The messages quote the input key, e.g. "cannot parse 'size' as int".
func (f *Form[T]) fieldFor(msg string) (string, bool) {
	for _, fld := range f.fields {
		if strings.Contains(msg, "'"+fld.name+"'") {
			return fld.name, true
		}
	}
	return "", false
}

// jsonNumberHook decodes json.Number input values (the web layer decodes
// request bodies with UseNumber to avoid float mangling of ints) into
// whatever numeric kind the form field declares.
func jsonNumberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from != reflect.TypeOf(json.Number("")) {
		return data, nil
	}
	n := string(data.(json.Number))

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64E(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cast.ToUint64E(n)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(n)
	case reflect.String:
		return n, nil
	}
	return data, nil
}

func fieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("form")
	if tag != "" {
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag != "" && tag != "-" {
			return tag
		}
	}

	r, size := utf8.DecodeRuneInString(fld.Name)
	return string(unicode.ToLower(r)) + fld.Name[size:]
}

func hasRule(rules, rule string) bool {
	for _, r := range strings.Split(rules, ",") {
		if r == rule || strings.HasPrefix(r, rule+"=") {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
