package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{InvalidTransition("inbound", "storage"), http.StatusBadRequest},
		{NotFound("product", "p1"), http.StatusNotFound},
		{InvalidState("wrong phase"), http.StatusConflict},
		{Concurrent("product", "p1"), http.StatusConflict},
		{NoActiveOrder("p1"), http.StatusConflict},
		{IncompleteBundle("b1", []string{"p2"}), http.StatusConflict},
		{External("yamato", fmt.Errorf("timeout")), http.StatusBadGateway},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Concurrent("product", "p1").Retryable() {
		t.Error("concurrent modification should be retryable")
	}
	if !External("carrier", fmt.Errorf("down")).Retryable() {
		t.Error("external failures should be retryable")
	}
	if Validation("bad").Retryable() {
		t.Error("validation failures are not retryable")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := External("carrier", cause)
	if !errors.Is(err, cause) {
		t.Error("External should wrap its cause")
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, IncompleteBundle("b1", []string{"p3"}))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	var body struct {
		Error struct {
			Kind       string   `json:"kind"`
			Message    string   `json:"message"`
			Retryable  bool     `json:"retryable"`
			MissingIDs []string `json:"missing_ids"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Kind != string(KindIncompleteBundle) {
		t.Errorf("kind = %s, want incomplete_bundle", body.Error.Kind)
	}
	if len(body.Error.MissingIDs) != 1 || body.Error.MissingIDs[0] != "p3" {
		t.Errorf("missing_ids = %v, want [p3]", body.Error.MissingIDs)
	}
}

func TestWriteJSONPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, fmt.Errorf("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
