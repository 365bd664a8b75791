package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

// Middleware resolves the Bearer token into an Actor on the request
// context. Requests without a valid token pass through with the
// anonymous actor; the operation handlers only record the actor, they
// do not gate on it.
func Middleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			c := &claims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), c,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
					}
					return key, nil
				})
			if err != nil || !token.Valid {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithActor(r.Context(), Actor{ID: c.Subject, Name: c.Name, Role: c.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
