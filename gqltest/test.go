/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package gqltest has helpers for testing GraphQL mutations built with this
// library: a client that executes requests against a handler as a given
// user, and assertions for the common success/error envelope checks.
package gqltest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/serious-go/graphene/auth"
	"github.com/serious-go/graphene/schema"
)

// Client executes GraphQL requests against a handler.  The user, when set,
// is attached straight to the request context, so use a handler without auth
// middleware (auth middleware would overwrite it).
type Client struct {
	Handler http.Handler
}

// NewClient returns a Client executing against h.
func NewClient(h http.Handler) *Client {
	return &Client{Handler: h}
}

// Execute posts req to the handler as user (nil for an unauthenticated
// request) and returns the decoded response body.
func (c *Client) Execute(
	t *testing.T, req *schema.Request, user *auth.User) map[string]interface{} {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	hr := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	hr.Header.Set("Content-Type", "application/json")
	if user != nil {
		hr = hr.WithContext(auth.WithUser(hr.Context(), user))
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, hr)

	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

// Data digs the payload of mutation name out of result, failing the test if
// it isn't there.
func Data(t *testing.T, result map[string]interface{}, name string) map[string]interface{} {
	t.Helper()

	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "no data in result %v", result)

	payload, ok := data[name].(map[string]interface{})
	require.True(t, ok, "no %s payload in result %v", name, result)

	return payload
}

// MutationError returns whatever error the mutation reported: the
// validationErrors list, the errorMessage string, or nil for none.  The
// error field's union variants must have been queried for this to see them.
func MutationError(result map[string]interface{}, name string) interface{} {
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return nil
	}
	payload, ok := data[name].(map[string]interface{})
	if !ok {
		return nil
	}
	errVal, ok := payload["error"].(map[string]interface{})
	if !ok {
		return nil
	}

	if verrs, ok := errVal["validationErrors"]; ok && verrs != nil {
		return verrs
	}
	if msg, ok := errVal["errorMessage"]; ok && msg != nil {
		return msg
	}
	return nil
}

// RequireSuccessful asserts that mutation name executed successfully:
// success is true and error is null.
func RequireSuccessful(t *testing.T, result map[string]interface{}, name string) {
	t.Helper()

	payload := Data(t, result, name)
	require.Equal(t, true, payload["success"], "payload: %v", payload)
	require.Nil(t, MutationError(result, name), "payload: %v", payload)
}

// RequireErrored asserts that mutation name executed but failed: success is
// false and an error is present.
func RequireErrored(t *testing.T, result map[string]interface{}, name string) {
	t.Helper()

	payload := Data(t, result, name)
	require.Equal(t, false, payload["success"], "payload: %v", payload)
	require.NotNil(t, MutationError(result, name), "payload: %v", payload)
}

// RequireThrew asserts that the request threw an uncaught error: no data,
// and top-level errors present.
func RequireThrew(t *testing.T, result map[string]interface{}) {
	t.Helper()

	require.Nil(t, result["data"])
	require.NotEmpty(t, result["errors"])
}
