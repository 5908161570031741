/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/serious-go/graphene/forms"
	"github.com/serious-go/graphene/schema"
)

// A MutationResolver can resolve a single mutation.  The returned value is
// completed against the mutation's selection set; a returned error aborts
// the mutation and surfaces as a top-level GraphQL error.
type MutationResolver interface {
	Resolve(ctx context.Context, m schema.Mutation) (interface{}, error)
}

// MutationResolverFunc is an adapter that allows us to use a function as a
// MutationResolver.  Based on the http.HandlerFunc pattern.
type MutationResolverFunc func(ctx context.Context, m schema.Mutation) (interface{}, error)

// Resolve calls mr(ctx, m).
func (mr MutationResolverFunc) Resolve(
	ctx context.Context, m schema.Mutation) (interface{}, error) {
	return mr(ctx, m)
}

// A MutationError is the error half of a failable result: either the field
// errors of a failed validation, or the single message of a failed execution.
// On the wire it's the MutationError union, discriminated by __typename.
type MutationError interface {
	mutationError()
}

// ValidationErrors is the MutationError variant carrying per-field
// validation failures, in form field declaration order.
type ValidationErrors struct {
	Errors []forms.FieldError
}

func (*ValidationErrors) mutationError() {}

// MarshalJSON includes the union discriminant.
func (e *ValidationErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Typename string             `json:"__typename"`
		Errors   []forms.FieldError `json:"validationErrors"`
	}{Typename: "ValidationErrors", Errors: e.Errors})
}

// ExecutionError is the MutationError variant carrying the message of a
// process step that failed after validation passed.
type ExecutionError struct {
	Message string
}

func (*ExecutionError) mutationError() {}

// MarshalJSON includes the union discriminant.
func (e *ExecutionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Typename string `json:"__typename"`
		Message  string `json:"errorMessage"`
	}{Typename: "ExecutionError", Message: e.Message})
}

// Result is the failable result every mutation payload embeds:
//
//	type CreateTaskPayload struct {
//		resolve.Result
//		Task *Task `json:"task,omitempty"`
//	}
//
// Error is non-nil exactly when Success is false.
type Result struct {
	Success bool          `json:"success"`
	Error   MutationError `json:"error,omitempty"`
}

func (r *Result) envelope() *Result { return r }

// A failable is any value embedding Result.  Embedding promotes envelope(),
// so app payload structs satisfy this without doing anything.
type failable interface {
	envelope() *Result
}

// Success returns the all-good envelope.  Richer payloads embed this and set
// their own fields alongside.
func Success() Result {
	return Result{Success: true}
}

// Failed returns the envelope for input that didn't validate.  The field
// error order is preserved as produced by the form.
func Failed(fieldErrors []forms.FieldError) Result {
	return Result{Error: &ValidationErrors{Errors: fieldErrors}}
}

// Execution returns the envelope for a process step that failed with msg.
func Execution(msg string) Result {
	return Result{Error: &ExecutionError{Message: msg}}
}

// mutationFailed is the error process steps return (via MutationFailedf) to
// signal an expected execution failure.  It's the one error kind the
// adapter turns into response data instead of a fault.
type mutationFailed struct {
	msg string
}

func (e *mutationFailed) Error() string { return e.msg }

// MutationFailedf builds the error a Process step returns to fail its
// mutation with an ExecutionError carrying the given message.  Any other
// error returned from Process propagates as a GraphQL fault instead.
func MutationFailedf(format string, args ...interface{}) error {
	return &mutationFailed{msg: fmt.Sprintf(format, args...)}
}

// FormMutation resolves a mutation by validating its arguments with a form
// and handing the cleaned data to Process.
//
// The flow mirrors what every form-backed mutation would otherwise hand-roll:
// bind input, return the form's field errors as data if validation fails,
// otherwise run Process; a MutationFailedf error from Process becomes an
// ExecutionError, anything else is a fault.
type FormMutation[T any] struct {
	Form    *forms.Form[T]
	Process func(ctx context.Context, data T) (interface{}, error)
}

// Resolve implements MutationResolver.
func (fm *FormMutation[T]) Resolve(
	ctx context.Context, m schema.Mutation) (interface{}, error) {

	if fm == nil || fm.Form == nil || fm.Process == nil {
		return nil, errors.Errorf(
			"mutation %s is not fully configured: it needs both a form and a process step",
			m.Name())
	}

	bound, err := fm.Form.Bind(m.Arguments())
	if err != nil {
		return nil, schema.GQLWrapf(err, "couldn't bind arguments of mutation %s", m.Name())
	}

	if !bound.Valid() {
		res := Failed(bound.Errors())
		return &res, nil
	}

	result, err := fm.Process(ctx, bound.Cleaned())
	if err != nil {
		failed := &mutationFailed{}
		if errors.As(err, &failed) {
			res := Execution(failed.msg)
			return &res, nil
		}
		return nil, err
	}

	// Default success from the error field, so process steps that only fill
	// in their payload data still report a consistent envelope.
	if f, ok := result.(failable); ok {
		env := f.envelope()
		env.Success = env.Error == nil
	}

	return result, nil
}
