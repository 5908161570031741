/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package auth carries the authenticated user through GraphQL resolution.
//
// The HTTP layer (usually Middleware) attaches a User to the request
// context; mutations read it back with FromContext.  This exists because
// otherwise the same few lines would have to be repeated in every mutation
// where a user is required.
package auth

import "context"

// User is the identity a request resolved to.  An unauthenticated request
// still carries a user - the anonymous sentinel.
type User struct {
	ID        string
	Name      string
	Anonymous bool
}

// AnonymousUser returns the sentinel for an unauthenticated request.
func AnonymousUser() *User {
	return &User{Anonymous: true}
}

type userKey struct{}

// WithUser returns a context carrying u as the resolution's user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the user attached to the resolution context.
//
// If allowAnonymous is false, anonymous users are replaced with nil, so
// mutations that require a login can just nil-check.  A context with no
// user attached at all also yields nil.
func FromContext(ctx context.Context, allowAnonymous bool) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	if u != nil && u.Anonymous && !allowAnonymous {
		u = nil
	}
	return u
}
