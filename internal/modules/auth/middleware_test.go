package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "middleware-test-secret"

func signedToken(t *testing.T, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	c := &claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "7f8d0a1e-0000-0000-0000-000000000001",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Name: "Warehouse Staff",
		Role: "staff",
	}
	token, err := jwt.NewWithClaims(method, c).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func actorFor(t *testing.T, token string) Actor {
	t.Helper()
	var got Actor
	handler := Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddlewareResolvesActor(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte(testSecret))

	actor := actorFor(t, token)
	if actor.Name != "Warehouse Staff" || actor.Role != "staff" {
		t.Errorf("actor = %+v, want the token's claims", actor)
	}
}

func TestMiddlewareRejectsUnsignedToken(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	actor := actorFor(t, token)
	if actor.ID != "anonymous" {
		t.Errorf("actor = %+v, want anonymous for an alg=none token", actor)
	}
}

func TestMiddlewareRejectsWrongKey(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, []byte("some-other-secret"))

	actor := actorFor(t, token)
	if actor.ID != "anonymous" {
		t.Errorf("actor = %+v, want anonymous for a forged signature", actor)
	}
}
