/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID wraps next so every request's context carries a fresh
// request ID, which ends up in logs and in the response extensions.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), requestIDKey{}, uuid.New().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request ID attached to ctx, or "" if there isn't one.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
