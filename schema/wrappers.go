/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

// Wrap the github.com/dgraph-io/gqlparser/v2/ast definitions so that the
// resolver algorithm depends on behaviours we expect from a GraphQL schema
// and validation, but not on the exact structure in the gqlparser.
//
// This also hooks up some bookkeeping that's otherwise no fun.  E.g. getting
// values for field arguments requires the variable map from the operation -
// much nicer if they are resolved by magic here than carried through every
// resolver function.

import (
	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
	_ "github.com/dgraph-io/gqlparser/v2/validator/rules"
	"github.com/pkg/errors"
)

// A Request represents a GraphQL request.  It makes no guarantees that the
// request is valid.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// An Operation is a single valid GraphQL operation.  It contains either
// Queries or Mutations, but not both.
type Operation interface {
	Queries() []Query
	Mutations() []Mutation
	IsQuery() bool
	IsMutation() bool
	IsSubscription() bool
}

// A Field is one field from an Operation.
type Field interface {
	Name() string
	Alias() string
	ResponseName() string
	ArgValue(name string) interface{}
	Arguments() map[string]interface{}
	TypeName() string

	// TypeCondition is the type condition of the fragment this field was
	// selected through, or "" if the field wasn't inside a fragment.
	TypeCondition() string

	// SelectionSet is the fields selected under this field, with fragments
	// (inline and named) flattened into it.
	SelectionSet() []Field
}

// A Mutation is a field (from the schema's Mutation type) from an Operation.
type Mutation interface {
	Field
}

// A Query is a field (from the schema's Query type) from an Operation.
type Query interface {
	Field
}

type operation struct {
	op   *ast.OperationDefinition
	doc  *ast.QueryDocument
	vars map[string]interface{}
}

type field struct {
	field *ast.Field
	op    *operation
	cond  string
}

type mutation field
type query field

// Operation finds the operation in req, if it is a valid request for GraphQL
// schema s.  If the request is GraphQL valid, it must contain a single valid
// Operation.  If either the request is malformed or doesn't contain a valid
// operation, all GraphQL errors encountered are returned.
func (s *schema) Operation(req *Request) (Operation, error) {
	if req == nil || req.Query == "" {
		return nil, errors.New("no query string supplied in request")
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if gqlErr != nil {
		return nil, gqlErr
	}

	listErr := validator.Validate(s.schema, doc, req.Variables)
	if len(listErr) != 0 {
		return nil, listErr
	}

	if len(doc.Operations) > 1 && req.OperationName == "" {
		return nil, errors.Errorf(
			"Operation name must be supplied when query has more than 1 operation.")
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return nil, errors.Errorf("Supplied operation name %s isn't present in the request.",
			req.OperationName)
	}

	vars, gqlErr := validator.VariableValues(s.schema, op, req.Variables)
	if gqlErr != nil {
		return nil, gqlErr
	}

	return &operation{op: op, doc: doc, vars: vars}, nil
}

func (o *operation) IsQuery() bool {
	return o.op.Operation == ast.Query
}

func (o *operation) IsMutation() bool {
	return o.op.Operation == ast.Mutation
}

func (o *operation) IsSubscription() bool {
	return o.op.Operation == ast.Subscription
}

func (o *operation) Queries() (qs []Query) {
	if !o.IsQuery() {
		return
	}

	for _, f := range flattenSelections(o.op.SelectionSet, "", o) {
		qs = append(qs, (*query)(f))
	}

	return
}

func (o *operation) Mutations() (ms []Mutation) {
	if !o.IsMutation() {
		return
	}

	for _, f := range flattenSelections(o.op.SelectionSet, "", o) {
		ms = append(ms, (*mutation)(f))
	}

	return
}

// flattenSelections expands fragment spreads and inline fragments in set into
// a flat field list.  Fields selected through a fragment keep the fragment's
// type condition, so completion can skip them for non-matching concrete types.
func flattenSelections(set ast.SelectionSet, cond string, op *operation) []*field {
	var flds []*field

	for _, s := range set {
		switch sel := s.(type) {
		case *ast.Field:
			flds = append(flds, &field{field: sel, op: op, cond: cond})
		case *ast.InlineFragment:
			flds = append(flds, flattenSelections(sel.SelectionSet, sel.TypeCondition, op)...)
		case *ast.FragmentSpread:
			frag := op.doc.Fragments.ForName(sel.Name)
			if frag == nil {
				// Validation guarantees the fragment exists, so this can't
				// be reached through Operation().
				continue
			}
			flds = append(flds, flattenSelections(frag.SelectionSet, frag.TypeCondition, op)...)
		}
	}

	return flds
}

func responseName(f *ast.Field) string {
	if f.Alias == "" {
		return f.Name
	}
	return f.Alias
}

func (f *field) Name() string {
	return f.field.Name
}

func (f *field) Alias() string {
	return f.field.Alias
}

func (f *field) ResponseName() string {
	return responseName(f.field)
}

func (f *field) ArgValue(name string) interface{} {
	return f.Arguments()[name]
}

func (f *field) Arguments() map[string]interface{} {
	return f.field.ArgumentMap(f.op.vars)
}

func (f *field) TypeName() string {
	return f.field.Definition.Type.Name()
}

func (f *field) TypeCondition() string {
	return f.cond
}

func (f *field) SelectionSet() []Field {
	var flds []Field
	for _, fld := range flattenSelections(f.field.SelectionSet, "", f.op) {
		flds = append(flds, fld)
	}
	return flds
}

func (m *mutation) Name() string { return (*field)(m).Name() }
func (m *mutation) Alias() string { return (*field)(m).Alias() }
func (m *mutation) ResponseName() string { return (*field)(m).ResponseName() }
func (m *mutation) ArgValue(name string) interface{} { return (*field)(m).ArgValue(name) }
func (m *mutation) Arguments() map[string]interface{} { return (*field)(m).Arguments() }
func (m *mutation) TypeName() string { return (*field)(m).TypeName() }
func (m *mutation) TypeCondition() string { return (*field)(m).TypeCondition() }
func (m *mutation) SelectionSet() []Field { return (*field)(m).SelectionSet() }

func (q *query) Name() string { return (*field)(q).Name() }
func (q *query) Alias() string { return (*field)(q).Alias() }
func (q *query) ResponseName() string { return (*field)(q).ResponseName() }
func (q *query) ArgValue(name string) interface{} { return (*field)(q).ArgValue(name) }
func (q *query) Arguments() map[string]interface{} { return (*field)(q).Arguments() }
func (q *query) TypeName() string { return (*field)(q).TypeName() }
func (q *query) TypeCondition() string { return (*field)(q).TypeCondition() }
func (q *query) SelectionSet() []Field { return (*field)(q).SelectionSet() }
