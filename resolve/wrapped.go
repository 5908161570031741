/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

// Wrapped is the runtime value for the wrapper types schema.FailableType
// generates: exactly one of Result/Error is set, and Success agrees with
// which one it is.  Success is redundant with the nullability of the other
// two fields but kept for client ergonomics.
type Wrapped[T any] struct {
	Result  *T      `json:"result"`
	Error   *string `json:"error"`
	Success bool    `json:"success"`
}

// WrapResult wraps a successful result value.
func WrapResult[T any](result *T) Wrapped[T] {
	return Wrapped[T]{Result: result, Success: true}
}

// WrapError wraps a failure message.
func WrapError[T any](msg string) Wrapped[T] {
	return Wrapped[T]{Error: &msg}
}
