/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/serious-go/graphene/auth"
	"github.com/serious-go/graphene/forms"
	"github.com/serious-go/graphene/gqltest"
	"github.com/serious-go/graphene/resolve"
	"github.com/serious-go/graphene/schema"
)

const noteSchema = `
type Note {
	text: String!
	author: String!
}

type AddNotePayload {
	success: Boolean!
	error: MutationError
	note: Note
}

type Query {
	health: String
}

type Mutation {
	addNote(text: String!): AddNotePayload
}
`

type note struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type addNotePayload struct {
	resolve.Result
	Note *note `json:"note,omitempty"`
}

type addNoteForm struct {
	Text string `form:"text" validate:"required,max=5"`
}

func noteServer(t *testing.T) http.Handler {
	t.Helper()

	sch, err := schema.AsSchema(noteSchema)
	require.NoError(t, err)

	r := resolve.New(sch)
	r.RegisterMutation("addNote", &resolve.FormMutation[addNoteForm]{
		Form: forms.New[addNoteForm](),
		Process: func(ctx context.Context, data addNoteForm) (interface{}, error) {
			user := auth.FromContext(ctx, false)
			if user == nil {
				return nil, resolve.MutationFailedf("you need to be logged in to add notes")
			}
			if data.Text == "panic" {
				panic("the note store is gone")
			}
			return &addNotePayload{Note: &note{Text: data.Text, Author: user.Name}}, nil
		},
	})
	r.RegisterQuery("health",
		resolve.QueryResolverFunc(func(ctx context.Context, q schema.Query) (interface{}, error) {
			return "ok", nil
		}))

	return NewServer(r)
}

var alice = &auth.User{ID: "0x1", Name: "alice"}

const addNoteMutation = `
mutation addNote($text: String!) {
	addNote(text: $text) {
		success
		error {
			... on ValidationErrors { validationErrors { field messages } }
			... on ExecutionError { errorMessage }
		}
		note { text author }
	}
}`

func TestPostMutationSuccess(t *testing.T) {
	client := gqltest.NewClient(noteServer(t))

	result := client.Execute(t, &schema.Request{
		Query:     addNoteMutation,
		Variables: map[string]interface{}{"text": "hi"},
	}, alice)

	gqltest.RequireSuccessful(t, result, "addNote")
	payload := gqltest.Data(t, result, "addNote")
	require.Equal(t,
		map[string]interface{}{"text": "hi", "author": "alice"},
		payload["note"])
}

func TestPostMutationValidationFailure(t *testing.T) {
	client := gqltest.NewClient(noteServer(t))

	result := client.Execute(t, &schema.Request{
		Query:     addNoteMutation,
		Variables: map[string]interface{}{"text": "much too long"},
	}, alice)

	gqltest.RequireErrored(t, result, "addNote")
	require.Equal(t,
		[]interface{}{map[string]interface{}{
			"field":    "text",
			"messages": []interface{}{"Ensure this value has at most 5 characters (it has 13)."},
		}},
		gqltest.MutationError(result, "addNote"))
}

func TestPostMutationWithoutUser(t *testing.T) {
	client := gqltest.NewClient(noteServer(t))

	result := client.Execute(t, &schema.Request{
		Query:     addNoteMutation,
		Variables: map[string]interface{}{"text": "hi"},
	}, nil)

	gqltest.RequireErrored(t, result, "addNote")
	require.Equal(t, "you need to be logged in to add notes",
		gqltest.MutationError(result, "addNote"))
}

func TestPostMutationPanicThrows(t *testing.T) {
	client := gqltest.NewClient(noteServer(t))

	result := client.Execute(t, &schema.Request{
		Query:     addNoteMutation,
		Variables: map[string]interface{}{"text": "panic"},
	}, alice)

	gqltest.RequireThrew(t, result)
}

func TestGetQuery(t *testing.T) {
	server := noteServer(t)

	r := httptest.NewRequest(http.MethodGet,
		"/graphql?query="+url.QueryEscape("query { health }"), nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data": {"health": "ok"}}`, w.Body.String())
}

func TestPostRejectsUnknownContentType(t *testing.T) {
	server := noteServer(t)

	r := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader("query { health }"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Unrecognised Content-Type")
}

func TestRejectsUnknownMethod(t *testing.T) {
	server := noteServer(t)

	r := httptest.NewRequest(http.MethodDelete, "/graphql", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Contains(t, w.Body.String(), "Unrecognised request method")
}

func TestCommonHeaders(t *testing.T) {
	server := noteServer(t)

	r := httptest.NewRequest(http.MethodGet,
		"/graphql?query="+url.QueryEscape("query { health }"), nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
