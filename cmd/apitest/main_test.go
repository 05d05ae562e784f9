package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/gops-apitest/internal/devbackend"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_FILE", "API_BASE_URL", "ORDERING", "REQUEST_TIMEOUT", "LOG_LEVEL", "LOG_STYLE"} {
		t.Setenv(k, "")
	}
}

func backend(t *testing.T) string {
	t.Helper()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h, err := devbackend.NewRouter(devbackend.Options{Now: func() time.Time { return fixed }})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRun_Hello(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	err := run([]string{"-api", backend(t), "-log-level", "error", "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "API Response:\n"+
		"  Message: Hello from Spring Boot!\n"+
		"  Game: gops\n"+
		"  Timestamp: 2025-03-01T12:00:00Z\n", out.String())
}

func TestRun_BothLatestOrdering(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	err := run([]string{"-api", backend(t), "-ordering", "latest", "-log-level", "error", "both"}, &out)
	require.NoError(t, err)
	// hello was issued last, so only its response may be shown
	assert.Contains(t, out.String(), "Message: Hello from Spring Boot!")
	assert.NotContains(t, out.String(), "Status:")
}

func TestRun_MalformedBodyFails(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Whitelabel Error Page"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"-api", srv.URL, "-log-level", "error", "health"}, &out)
	assert.True(t, errors.Is(err, errRequestFailed), "got %v", err)
	assert.Equal(t, "Error:\n  Error occured\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	clearEnv(t)
	for _, args := range [][]string{nil, {"health", "hello"}, {"metrics"}} {
		err := run(args, &bytes.Buffer{})
		require.Error(t, err)
		assert.False(t, errors.Is(err, errRequestFailed))
		assert.True(t, strings.Contains(err.Error(), "usage") || strings.Contains(err.Error(), "unknown endpoint"), err.Error())
	}
}
