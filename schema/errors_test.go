/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"testing"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAsGQLErrors(t *testing.T) {
	require.Nil(t, AsGQLErrors(nil))

	gqlErr := gqlerror.Errorf("A GraphQL error")
	errs := AsGQLErrors(gqlErr)
	require.Len(t, errs, 1)
	require.Equal(t, gqlErr, errs[0])

	list := gqlerror.List{gqlerror.Errorf("one"), gqlerror.Errorf("two")}
	require.Equal(t, list, AsGQLErrors(list))

	errs = AsGQLErrors(errors.New("A plain error"))
	require.Len(t, errs, 1)
	require.Equal(t, "A plain error", errs[0].Message)
}

func TestGQLWrapf(t *testing.T) {
	tests := map[string]struct {
		err  error
		msg  string
		args []interface{}
		req  string
	}{
		"wrap one error": {err: errors.New("An error occurred"),
			msg: "mutation failed",
			req: "mutation failed because An error occurred"},
		"wrap multiple errors": {
			err: GQLWrapf(errors.New("A decode error occurred"), "couldn't bind input"),
			msg: "mutation failed",
			req: "mutation failed because couldn't bind input because " +
				"A decode error occurred"},
		"wrap and format": {err: errors.New("an error occurred"),
			msg:  "couldn't generate %s for %s",
			args: []interface{}{"query", "you"},
			req:  "couldn't generate query for you because an error occurred"},
	}

	for name, tcase := range tests {
		t.Run(name, func(t *testing.T) {
			wrapped := AsGQLErrors(GQLWrapf(tcase.err, tcase.msg, tcase.args...))
			require.Len(t, wrapped, 1)
			require.Equal(t, tcase.req, wrapped[0].Message)
		})
	}
}

func TestGQLWrapfKeepsLocations(t *testing.T) {
	gqlErr := &gqlerror.Error{
		Message:   "bad GraphQL input",
		Locations: []gqlerror.Location{{Line: 1, Column: 8}},
	}

	wrapped := AsGQLErrors(GQLWrapf(gqlErr, "couldn't generate query"))
	require.Len(t, wrapped, 1)
	require.Equal(t, "couldn't generate query because bad GraphQL input", wrapped[0].Message)
	require.Equal(t, gqlErr.Locations, wrapped[0].Locations)
}

func TestGQLWrapfNil(t *testing.T) {
	require.Nil(t, GQLWrapf(nil, "nothing"))
}
