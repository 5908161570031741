/*
 * SPDX-FileCopyrightText: © The serious-go Authors
 * SPDX-License-Identifier: Apache-2.0
 */

package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Claims are the JWT claims Middleware reads.  Subject carries the user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Middleware returns HTTP middleware that authenticates requests from a
// Bearer token signed with secret (HMAC) and attaches the resulting User to
// the request context.
//
// A missing Authorization header attaches the anonymous sentinel.  So does a
// token that doesn't verify - auth failures here aren't faults, they just
// leave the request anonymous; whether that's acceptable is each mutation's
// decision.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(r, secret)
			if err != nil {
				glog.Warningf("rejecting authorization token: %v", err)
				user = AnonymousUser()
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func userFromRequest(r *http.Request, secret []byte) (*User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return AnonymousUser(), nil
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == header {
		return nil, errors.New("authorization header is not a Bearer token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, errors.Wrap(err, "parsing JWT")
	}

	return &User{ID: claims.Subject, Name: claims.Name}, nil
}
