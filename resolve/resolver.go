/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/golang/glog"
	otrace "go.opencensus.io/trace"

	"github.com/serious-go/graphene/api"
	"github.com/serious-go/graphene/schema"
)

// GraphQL spec on serving:
// https://graphql.github.io/graphql-spec/June2018/#sec-Response
//
// Key points about the response:
//
// - If an error was encountered before execution begins,
//   the data entry should not be present in the result.
//
// - If there's errors and data, both are returned.
//
// - If no errors were encountered during the requested operation,
//   the errors entry should not be present in the result.

// A QueryResolver can resolve a single query.  Queries aren't this library's
// business beyond giving the schema a valid query root, so resolution is just
// "produce a value, we'll complete it".
type QueryResolver interface {
	Resolve(ctx context.Context, q schema.Query) (interface{}, error)
}

// QueryResolverFunc is an adapter that allows us to use a function as a
// QueryResolver.
type QueryResolverFunc func(ctx context.Context, q schema.Query) (interface{}, error)

// Resolve calls qr(ctx, q).
func (qr QueryResolverFunc) Resolve(ctx context.Context, q schema.Query) (interface{}, error) {
	return qr(ctx, q)
}

// RequestResolver can process GraphQL requests and write GraphQL JSON
// responses.  Register one resolver per mutation and query field name; the
// schema decides which requests are valid, the resolvers decide what they
// mean.
type RequestResolver struct {
	schema    schema.Schema
	mutations map[string]MutationResolver
	queries   map[string]QueryResolver
}

// New creates a new RequestResolver for s with no resolvers registered.
func New(s schema.Schema) *RequestResolver {
	return &RequestResolver{
		schema:    s,
		mutations: make(map[string]MutationResolver),
		queries:   make(map[string]QueryResolver),
	}
}

// RegisterMutation registers mr as the resolver for mutation field name.
func (r *RequestResolver) RegisterMutation(name string, mr MutationResolver) {
	r.mutations[name] = mr
}

// RegisterQuery registers qr as the resolver for query field name.
func (r *RequestResolver) RegisterQuery(name string, qr QueryResolver) {
	r.queries[name] = qr
}

// Resolve processes req and returns a GraphQL response.  Any errors are
// recorded in the response's error list.
func (r *RequestResolver) Resolve(ctx context.Context, req *schema.Request) *schema.Response {
	ctx, span := otrace.StartSpan(ctx, "resolve")
	defer span.End()

	if r == nil {
		glog.Error("Call to Resolve with nil RequestResolver")
		return schema.ErrorResponsef("Internal error")
	}

	if r.schema == nil {
		glog.Error("Call to Resolve with no schema")
		return schema.ErrorResponsef("Internal error")
	}

	op, err := r.schema.Operation(req)
	if err != nil {
		return schema.ErrorResponse(err, api.RequestID(ctx))
	}

	resp := &schema.Response{}

	// A single request contains either queries or mutations - not both;
	// GraphQL validation has caught that case before we get here.
	switch {
	case op.IsQuery():
		// Queries are independent of each other: an error in one doesn't
		// affect the others.
		for _, q := range op.Queries() {
			b, err := r.resolveQuery(ctx, q)
			resp.WithError(err)
			resp.AddData(b)
		}
	case op.IsMutation():
		// Mutations are run serially, and the results are not independent:
		// if one mutation errors, the remaining ones aren't run.
		// (spec https://graphql.github.io/graphql-spec/June2018/#sec-Normal-and-Serial-Execution)
		for _, m := range op.Mutations() {
			if len(resp.Errors) > 0 {
				resp.WithError(gqlerror.Errorf(
					"mutation %s not executed because of previous error", m.Name()))
				continue
			}

			b, err := r.resolveMutation(ctx, m)
			resp.WithError(err)
			resp.AddData(b)
		}
	case op.IsSubscription():
		resp.WithError(gqlerror.Errorf("subscriptions are not supported"))
	}

	return resp
}

func (r *RequestResolver) resolveMutation(
	ctx context.Context, m schema.Mutation) (b []byte, err error) {

	defer api.PanicHandler(api.RequestID(ctx), func(panicErr error) {
		b, err = nil, panicErr
	})

	mr, ok := r.mutations[m.Name()]
	if !ok {
		return nil, gqlerror.Errorf("mutation %s is not implemented", m.Name())
	}

	result, err := mr.Resolve(ctx, m)
	if err != nil {
		return nil, schema.GQLWrapf(err, "mutation %s failed", m.Name())
	}

	return completeResult(m, result)
}

func (r *RequestResolver) resolveQuery(
	ctx context.Context, q schema.Query) (b []byte, err error) {

	defer api.PanicHandler(api.RequestID(ctx), func(panicErr error) {
		b, err = nil, panicErr
	})

	qr, ok := r.queries[q.Name()]
	if !ok {
		return nil, gqlerror.Errorf("query %s is not implemented", q.Name())
	}

	result, err := qr.Resolve(ctx, q)
	if err != nil {
		return nil, schema.GQLWrapf(err, "query %s failed", q.Name())
	}

	return completeResult(q, result)
}

// completeResult turns a resolved Go value into the `"responseName": {...}`
// JSON member for the response data, shaped by the field's selection set.
func completeResult(f schema.Field, result interface{}) ([]byte, error) {
	// Round-trip through JSON so completion only ever deals with maps,
	// slices and scalars, and so the payload structs' json tags decide the
	// wire names.
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, schema.GQLWrapf(err, "couldn't marshal result of %s", f.ResponseName())
	}

	var val interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&val); err != nil {
		return nil, schema.GQLWrapf(err, "couldn't complete result of %s", f.ResponseName())
	}

	var buf bytes.Buffer
	buf.WriteRune('"')
	buf.WriteString(f.ResponseName())
	buf.WriteString(`":`)

	if err := completeValue(&buf, f, val); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// completeValue writes val to buf according to f's selection set: response
// keys appear in selection order, unselected data is dropped, and selections
// with a non-matching fragment type condition are skipped.
func completeValue(buf *bytes.Buffer, f schema.Field, val interface{}) error {
	if val == nil {
		buf.WriteString("null")
		return nil
	}

	if list, ok := val.([]interface{}); ok {
		buf.WriteRune('[')
		for i, item := range list {
			if i > 0 {
				buf.WriteRune(',')
			}
			if err := completeValue(buf, f, item); err != nil {
				return err
			}
		}
		buf.WriteRune(']')
		return nil
	}

	sels := f.SelectionSet()
	if len(sels) == 0 {
		// Leaf field: the value goes out as is.
		b, err := json.Marshal(val)
		if err != nil {
			return schema.GQLWrapf(err, "couldn't marshal value of field %s", f.ResponseName())
		}
		buf.Write(b)
		return nil
	}

	obj, ok := val.(map[string]interface{})
	if !ok {
		return gqlerror.Errorf(
			"field %s has a selection set but resolved to a non-object value",
			f.ResponseName())
	}

	// The concrete type for union/interface values rides on the value itself
	// (the MutationError variants marshal their own __typename); plain object
	// values fall back to the schema's static type.
	typename := f.TypeName()
	if tn, ok := obj["__typename"].(string); ok {
		typename = tn
	}

	buf.WriteRune('{')
	first := true
	for _, sel := range sels {
		if sel.TypeCondition() != "" && sel.TypeCondition() != typename {
			continue
		}

		if !first {
			buf.WriteRune(',')
		}
		first = false

		buf.WriteRune('"')
		buf.WriteString(sel.ResponseName())
		buf.WriteString(`":`)

		if sel.Name() == "__typename" {
			buf.WriteRune('"')
			buf.WriteString(typename)
			buf.WriteRune('"')
			continue
		}

		if err := completeValue(buf, sel, obj[sel.Name()]); err != nil {
			return err
		}
	}
	buf.WriteRune('}')

	return nil
}
