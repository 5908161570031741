/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package forms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type taskForm struct {
	Name string `form:"name" validate:"required,max=5"`
	Size int    `form:"size" validate:"gte=0"`
	Note string
}

func TestBindValidInput(t *testing.T) {
	form := New[taskForm]()

	bound, err := form.Bind(map[string]interface{}{
		"name": "ok",
		"size": json.Number("3"),
		"note": "whatever",
	})
	require.NoError(t, err)

	require.True(t, bound.Valid())
	require.Empty(t, bound.Errors())
	require.Equal(t, taskForm{Name: "ok", Size: 3, Note: "whatever"}, bound.Cleaned())
}

func TestBindIgnoresUnknownKeys(t *testing.T) {
	form := New[taskForm]()

	bound, err := form.Bind(map[string]interface{}{
		"name":     "ok",
		"whatisit": "not a field",
	})
	require.NoError(t, err)
	require.True(t, bound.Valid())
}

func TestBindValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		expected []FieldError
	}{
		{
			name:  "max length exceeded",
			input: map[string]interface{}{"name": "toolong"},
			expected: []FieldError{{
				Field:    "name",
				Messages: []string{"Ensure this value has at most 5 characters (it has 7)."},
			}},
		},
		{
			name:  "required field missing",
			input: map[string]interface{}{"size": json.Number("1")},
			expected: []FieldError{{
				Field:    "name",
				Messages: []string{"This field is required."},
			}},
		},
		{
			name:  "numeric rule",
			input: map[string]interface{}{"name": "ok", "size": json.Number("-2")},
			expected: []FieldError{{
				Field:    "size",
				Messages: []string{"Ensure this value is greater than or equal to 0."},
			}},
		},
		{
			name:  "errors keep field declaration order",
			input: map[string]interface{}{"size": json.Number("-2"), "name": "toolong"},
			expected: []FieldError{
				{
					Field:    "name",
					Messages: []string{"Ensure this value has at most 5 characters (it has 7)."},
				},
				{
					Field:    "size",
					Messages: []string{"Ensure this value is greater than or equal to 0."},
				},
			},
		},
	}

	form := New[taskForm]()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound, err := form.Bind(tt.input)
			require.NoError(t, err)

			require.False(t, bound.Valid())
			require.Equal(t, tt.expected, bound.Errors())
		})
	}
}

func TestBindUndecodableValueIsAFieldError(t *testing.T) {
	form := New[taskForm]()

	bound, err := form.Bind(map[string]interface{}{
		"name": "ok",
		"size": "not a number",
	})
	require.NoError(t, err)

	require.False(t, bound.Valid())
	require.Len(t, bound.Errors(), 1)
	require.Equal(t, "size", bound.Errors()[0].Field)
	require.Equal(t, []string{"Enter a valid value."}, bound.Errors()[0].Messages)
}

func TestBindCoercesWeakTypes(t *testing.T) {
	form := New[taskForm]()

	// GET requests arrive with everything as strings.
	bound, err := form.Bind(map[string]interface{}{"name": "ok", "size": "7"})
	require.NoError(t, err)

	require.True(t, bound.Valid())
	require.Equal(t, 7, bound.Cleaned().Size)
}

func TestArguments(t *testing.T) {
	form := New[taskForm]()

	args := form.Arguments(nil, nil)
	require.Len(t, args, 3)
	require.Equal(t, "name", args[0].Name)
	require.True(t, args[0].Required)
	require.Equal(t, "size", args[1].Name)
	require.False(t, args[1].Required)

	// Untagged fields default to the lower-camel Go name.
	require.Equal(t, "note", args[2].Name)

	only := form.Arguments([]string{"name"}, nil)
	require.Len(t, only, 1)
	require.Equal(t, "name", only[0].Name)

	excluded := form.Arguments(nil, []string{"size", "note"})
	require.Len(t, excluded, 1)
	require.Equal(t, "name", excluded[0].Name)
}

func TestNewPanicsOnNonStruct(t *testing.T) {
	require.Panics(t, func() { New[string]() })
}
