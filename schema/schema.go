/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"

	"github.com/serious-go/graphene/forms"
)

// mutationErrorTypes is the schema fragment this library contributes to every
// schema it loads.  Failable mutation payloads declare
//
//	success: Boolean!
//	error: MutationError
//
// and clients decode the union on __typename.
const mutationErrorTypes = `
type ValidationError {
	field: String
	messages: [String!]
}

type ValidationErrors {
	validationErrors: [ValidationError!]
}

type ExecutionError {
	errorMessage: String!
}

union MutationError = ValidationErrors | ExecutionError
`

// A Schema is a valid GraphQL schema that can find the single operation
// in a Request.
type Schema interface {
	Operation(r *Request) (Operation, error)
}

type schema struct {
	schema *ast.Schema
}

// AsSchema parses and validates sdl, adds the library's mutation error types
// (ValidationErrors, ExecutionError and the MutationError union) and any
// extra definitions, and returns the resulting schema.
//
// The sdl should contain everything else the app needs: its payload types,
// its Query type and its Mutation type.
func AsSchema(sdl string, extra ...*ast.Definition) (Schema, error) {
	if sdl == "" {
		return nil, gqlerror.Errorf("no schema specified")
	}

	doc, gqlErr := parser.ParseSchemas(
		validator.Prelude,
		&ast.Source{Name: "mutation_errors.graphql", Input: mutationErrorTypes},
		&ast.Source{Name: "schema.graphql", Input: sdl})
	if gqlErr != nil {
		return nil, gqlErr
	}

	doc.Definitions = append(doc.Definitions, extra...)

	sch, gqlErr := validator.ValidateSchemaDocument(doc)
	if gqlErr != nil {
		return nil, gqlErr
	}

	return &schema{schema: sch}, nil
}

// FailableType synthesizes a wrapper object type for def with fields
//
//	result: <def's type>
//	error: String
//	success: Boolean!
//
// Exactly one of result/error is non-null in a response, consistent with
// success.  The wrapper is named name, or Failable<def's name> when name is
// empty.  This is a schema-definition-time transformation only; the wrapper
// has no behaviour of its own.
func FailableType(def *ast.Definition, name string) (*ast.Definition, error) {
	if def == nil {
		return nil, gqlerror.Errorf("FailableType requires a type definition")
	}
	if def.Name == "" && name == "" {
		return nil, gqlerror.Errorf(
			"the type passed doesn't have a name that we can generate a name from, " +
				"please specify one explicitly")
	}

	newName := name
	if newName == "" {
		newName = "Failable" + def.Name
	}

	return &ast.Definition{
		Kind: ast.Object,
		Name: newName,
		Fields: ast.FieldList{
			&ast.FieldDefinition{
				Name: "result",
				Type: &ast.Type{NamedType: def.Name},
			},
			&ast.FieldDefinition{
				Name: "error",
				Type: &ast.Type{NamedType: "String"},
			},
			&ast.FieldDefinition{
				Name: "success",
				Type: &ast.Type{NamedType: "Boolean", NonNull: true},
			},
		},
	}, nil
}

// ArgumentsSDL renders form arguments as a GraphQL argument list, e.g.
// "name: String!, age: Int".  The result is meant to be spliced into the
// app's Mutation type so the mutation's arguments always match the form
// that validates them.
func ArgumentsSDL(args []forms.Argument) (string, error) {
	var b strings.Builder

	for i, arg := range args {
		scalar, err := scalarFor(arg.Type)
		if err != nil {
			return "", err
		}

		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", arg.Name, scalar)
		if arg.Required {
			b.WriteRune('!')
		}
	}

	return b.String(), nil
}

func scalarFor(t reflect.Type) (string, error) {
	if t == nil {
		return "", gqlerror.Errorf("can't map a nil type to a GraphQL scalar")
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "String", nil
	case reflect.Bool:
		return "Boolean", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Int", nil
	case reflect.Float32, reflect.Float64:
		return "Float", nil
	}

	return "", gqlerror.Errorf("can't map %s to a GraphQL scalar", t)
}

// Stringify writes def back out as SDL.  It's enough for tests and
// debugging - the printed form doesn't carry descriptions or directives.
func Stringify(def *ast.Definition) string {
	if def == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "type %s {\n", def.Name)
	for _, f := range def.Fields {
		fmt.Fprintf(&sb, "\t%s: %s\n", f.Name, f.Type.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}
