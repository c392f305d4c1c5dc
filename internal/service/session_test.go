package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"qbank/internal/bankapi"
	"qbank/internal/domain"
	"qbank/internal/log"
)

func TestSessionService_Init(t *testing.T) {
	t.Run("empty_token_skips_network", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
		}))
		defer server.Close()

		client := bankapi.NewClient(server.URL, "", log.NullLogger())
		svc := NewSessionService(client, nil, log.NullLogger())

		_, err := svc.Init(context.Background(), "")
		if !errors.Is(err, domain.ErrAuthRequired) {
			t.Errorf("Init() error = %v, want ErrAuthRequired", err)
		}
		if n := atomic.LoadInt32(&requests); n != 0 {
			t.Errorf("Init() made %d requests with an empty token, want 0", n)
		}
	})

	t.Run("valid_token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/verify-token" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"valid": true, "user": {"username": "admin", "role": "editor"}}`))
		}))
		defer server.Close()

		client := bankapi.NewClient(server.URL, "", log.NullLogger())
		svc := NewSessionService(client, nil, log.NullLogger())

		user, err := svc.Init(context.Background(), "tok-123")
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if user.Username != "admin" {
			t.Errorf("user.Username = %q, want %q", user.Username, "admin")
		}
		if got := svc.User(); got == nil || got.Username != "admin" {
			t.Errorf("User() = %v, want the verified identity", got)
		}
	})

	t.Run("rejected_token_clears_credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"valid": false}`))
		}))
		defer server.Close()

		cleared := false
		client := bankapi.NewClient(server.URL, "", log.NullLogger())
		svc := NewSessionService(client, func() error {
			cleared = true
			return nil
		}, log.NullLogger())

		_, err := svc.Init(context.Background(), "stale-token")
		if !errors.Is(err, domain.ErrAuthRequired) {
			t.Errorf("Init() error = %v, want ErrAuthRequired", err)
		}
		if !cleared {
			t.Error("credentials were not cleared for a rejected token")
		}
		if svc.User() != nil {
			t.Errorf("User() = %v after rejected token, want nil", svc.User())
		}
	})

	t.Run("unreachable_server_fails_closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		cleared := false
		client := bankapi.NewClient(server.URL, "", log.NullLogger())
		svc := NewSessionService(client, func() error {
			cleared = true
			return nil
		}, log.NullLogger())

		_, err := svc.Init(context.Background(), "tok-123")
		if !errors.Is(err, domain.ErrAuthRequired) {
			t.Errorf("Init() error = %v, want ErrAuthRequired", err)
		}
		if !cleared {
			t.Error("credentials were not cleared when verification was impossible")
		}
	})
}

func TestSessionService_Logout(t *testing.T) {
	t.Run("clears_state_even_when_server_errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/logout" {
				http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"valid": true, "user": {"username": "admin"}}`))
		}))
		defer server.Close()

		cleared := false
		client := bankapi.NewClient(server.URL, "", log.NullLogger())
		svc := NewSessionService(client, func() error {
			cleared = true
			return nil
		}, log.NullLogger())

		if _, err := svc.Init(context.Background(), "tok-123"); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if err := svc.Logout(context.Background()); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if !cleared {
			t.Error("credentials were not cleared on logout")
		}
		if svc.User() != nil {
			t.Errorf("User() = %v after logout, want nil", svc.User())
		}
	})
}
