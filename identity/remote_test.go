package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/passvault/logger"
)

func TestRemoteProvider_StartFetchesAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/userinfo", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"accountId":"user-42","email":"user@example.com"}`)
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{
		BaseURL: srv.URL,
		Token:   "session-token",
	}, logger.Nop())
	defer p.Stop()

	require.NoError(t, p.Start(context.Background()))

	assert.Equal(t, "user-42", p.AccountID())
	assert.Equal(t, "user@example.com", p.Email())
}

func TestRemoteProvider_UnauthorizedMeansSignedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{BaseURL: srv.URL, Token: "revoked"}, logger.Nop())
	defer p.Stop()

	err := p.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, p.AccountID())
}

func TestRemoteProvider_PollPicksUpAccountSwitch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"accountId":"user-42","email":"user@example.com"}`)
			return
		}
		fmt.Fprint(w, `{"accountId":"user-7","email":"other@example.com"}`)
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{
		BaseURL:      srv.URL,
		Token:        "session-token",
		PollInterval: 20 * time.Millisecond,
	}, logger.Nop())
	defer p.Stop()

	var switches atomic.Int32
	p.OnAuthStateChange(func(state AuthState) {
		if state.AccountID == "user-7" {
			switches.Add(1)
		}
	})

	require.NoError(t, p.Start(context.Background()))
	require.Equal(t, "user-42", p.AccountID())

	// the switch notification fires only after the state is swapped, so
	// once it arrives the provider must already report the new account
	require.Eventually(t, func() bool {
		return switches.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "user-7", p.AccountID())
}

func TestRemoteProvider_SignOutNotifiesServer(t *testing.T) {
	var signOutCalled atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/userinfo":
			fmt.Fprint(w, `{"accountId":"user-42","email":"user@example.com"}`)
		case "/api/auth/signout":
			assert.Equal(t, http.MethodPost, r.Method)
			signOutCalled.Store(true)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{
		BaseURL:     srv.URL,
		SignOutPath: "/api/auth/signout",
		Token:       "session-token",
	}, logger.Nop())

	require.NoError(t, p.Start(context.Background()))
	require.Equal(t, "user-42", p.AccountID())

	var events []AuthState
	p.OnAuthStateChange(func(state AuthState) {
		events = append(events, state)
	})

	require.NoError(t, p.SignOut(context.Background()))

	assert.True(t, signOutCalled.Load())
	assert.Empty(t, p.AccountID())
	require.Len(t, events, 1)
	assert.False(t, events[0].SignedIn)
}

func TestRemoteProvider_StopIsIdempotent(t *testing.T) {
	p := NewRemoteProvider(RemoteConfig{BaseURL: "http://localhost:1"}, logger.Nop())

	p.Stop()
	p.Stop()
}
