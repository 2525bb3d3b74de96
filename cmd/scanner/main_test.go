package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func collect(t *testing.T, input string, step time.Duration) []string {
	t.Helper()
	var got []string
	err := run(context.Background(), strings.NewReader(input), steppingClock(step), func(tok string) {
		got = append(got, tok)
	})
	require.NoError(t, err)
	return got
}

func TestRun_EmitsOnEnter(t *testing.T) {
	assert.Equal(t, []string{"CARD42", "77"}, collect(t, "CARD42\r77\n", 10*time.Millisecond))
}

func TestRun_SlowTypingIsNotACard(t *testing.T) {
	assert.Empty(t, collect(t, "12\r", 200*time.Millisecond))
}

func TestRun_StopsOnCtrlC(t *testing.T) {
	assert.Equal(t, []string{"A"}, collect(t, "A\r\x03B\r", 10*time.Millisecond))
}

func TestRun_ControlKeysIgnored(t *testing.T) {
	assert.Equal(t, []string{"AB"}, collect(t, "A\tB\r", 10*time.Millisecond))
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, strings.NewReader("A\r"), time.Now, func(string) { t.Fatal("emitted after cancel") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/scans", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		if body["token"] == "CARD42" {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"notice":{"level":"success","message":"Ada Lovelace marked present"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"notice":{"level":"warning","message":"unknown card"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/", "tkn")
	n, err := c.scan(context.Background(), "CARD42")
	require.NoError(t, err)
	assert.Equal(t, "success", n.Level)

	n, err = c.scan(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "unknown card", n.Message)
}

func TestClientScan_NoNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "tkn").scan(context.Background(), "CARD42")
	assert.Error(t, err)
}
