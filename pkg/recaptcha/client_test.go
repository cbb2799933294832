package recaptcha

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newServer(t *testing.T, status int, body string, gotForm *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if gotForm != nil {
			*gotForm = map[string]string{
				"secret":   r.PostForm.Get("secret"),
				"response": r.PostForm.Get("response"),
				"remoteip": r.PostForm.Get("remoteip"),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestVerifySuccess(t *testing.T) {
	var form map[string]string
	srv := newServer(t, http.StatusOK, `{"success":true,"hostname":"galatadergisi.org"}`, &form)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if err := client.Verify(context.Background(), "s3cret", "tok", "10.0.0.1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if form["secret"] != "s3cret" || form["response"] != "tok" || form["remoteip"] != "10.0.0.1" {
		t.Fatalf("unexpected form %+v", form)
	}
}

func TestVerifyRejectedToken(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, nil)
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Verify(context.Background(), "s", "bad", "")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
}

func TestVerifyUpstreamError(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `oops`, nil)
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Verify(context.Background(), "s", "tok", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrVerificationFailed) {
		t.Fatal("upstream errors must not look like a rejected token")
	}
}
