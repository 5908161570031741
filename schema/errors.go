/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"fmt"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"
)

// AsGQLErrors formats an error as a list of GraphQL errors.
// A gqlerror.List gets returned as is, a *gqlerror.Error gets returned as a
// one item list, and all other errors get printed into a gqlerror.Error.
// A nil input results in nil output.
func AsGQLErrors(err error) gqlerror.List {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *gqlerror.Error:
		return gqlerror.List{e}
	case gqlerror.List:
		return e
	default:
		return gqlerror.List{&gqlerror.Error{Message: e.Error()}}
	}
}

// GQLWrapf takes an existing error and wraps it as a GraphQL error.
// If err is already a GraphQL error, any location information is kept in the
// new error.  If err is nil, GQLWrapf returns nil.
//
// Wrapping GraphQL errors like this allows us to bubble errors up the stack
// and add context to them as we go.
func GQLWrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	switch err := err.(type) {
	case *gqlerror.Error:
		return &gqlerror.Error{
			Message:   fmt.Sprintf("%s because %s", fmt.Sprintf(format, args...), err.Message),
			Locations: err.Locations,
			Path:      err.Path,
		}
	case gqlerror.List:
		var errs gqlerror.List
		for _, e := range err {
			errs = append(errs, GQLWrapf(e, format, args...).(*gqlerror.Error))
		}
		return errs
	default:
		return gqlerror.Errorf("%s because %s", fmt.Sprintf(format, args...), err.Error())
	}
}
