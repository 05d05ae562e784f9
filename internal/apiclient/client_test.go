package apiclient

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_IsStandardBase64OfLiteral(t *testing.T) {
	want := base64.StdEncoding.EncodeToString([]byte("admin:password"))
	assert.Equal(t, want, Credential())
	assert.Equal(t, "YWRtaW46cGFzc3dvcmQ=", Credential())
	assert.Equal(t, "Basic YWRtaW46cGFzc3dvcmQ=", AuthorizationHeader())
}

func TestClient_SendsSameHeadersToBothEndpoints(t *testing.T) {
	type seen struct{ method, path, auth, ctype string }
	var got []seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, seen{r.Method, r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("Content-Type")})
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	for _, e := range []Endpoint{EndpointHealth, EndpointHello} {
		_, err := c.Get(context.Background(), e)
		require.NoError(t, err)
	}

	require.Len(t, got, 2)
	assert.Equal(t, seen{"GET", "/api/health", "Basic YWRtaW46cGFzc3dvcmQ=", "application/json"}, got[0])
	assert.Equal(t, seen{"GET", "/api/hello", "Basic YWRtaW46cGFzc3dvcmQ=", "application/json"}, got[1])
}

func TestClient_Get(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantFields []Field
	}{
		{
			name:       "partial body",
			status:     http.StatusOK,
			body:       `{"status":"ok","service":"demo"}`,
			wantFields: []Field{{"status", "ok"}, {"service", "demo"}},
		},
		{
			name:   "all fields in display order",
			status: http.StatusOK,
			body:   `{"timestamp":"t","service":"s","status":"st","game":"g","message":"m"}`,
			wantFields: []Field{
				{"message", "m"}, {"game", "g"}, {"status", "st"}, {"service", "s"}, {"timestamp", "t"},
			},
		},
		{
			name:       "status code is not inspected",
			status:     http.StatusNotFound,
			body:       `{"message":"Not Found"}`,
			wantFields: []Field{{"message", "Not Found"}},
		},
		{
			name:       "unknown fields ignored",
			status:     http.StatusOK,
			body:       `{"status":"UP","uptime":42}`,
			wantFields: []Field{{"status", "UP"}},
		},
		{
			name:    "html body",
			status:  http.StatusOK,
			body:    `<html>oops</html>`,
			wantErr: ErrDecode,
		},
		{
			name:    "empty body",
			status:  http.StatusUnauthorized,
			body:    ``,
			wantErr: ErrDecode,
		},
		{
			name:    "null body",
			status:  http.StatusOK,
			body:    `null`,
			wantErr: ErrDecode,
		},
		{
			name:    "trailing garbage",
			status:  http.StatusOK,
			body:    `{"status":"ok"} extra`,
			wantErr: ErrDecode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			res, err := NewClient(Config{BaseURL: srv.URL}).Get(context.Background(), EndpointHealth)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "want %v, got %v", tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.StatusCode)
			assert.Equal(t, tc.wantFields, res.Response.Fields())
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: base}).Get(context.Background(), EndpointHello)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequest)
}

func TestClient_UnknownEndpoint(t *testing.T) {
	_, err := NewClient(Config{}).Get(context.Background(), Endpoint("metrics"))
	assert.ErrorIs(t, err, ErrRequest)
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", NewClient(Config{}).BaseURL())
}

func TestParseEndpoint(t *testing.T) {
	e, ok := ParseEndpoint("Health")
	assert.True(t, ok)
	assert.Equal(t, EndpointHealth, e)
	assert.Equal(t, "/api/health", e.Path())

	e, ok = ParseEndpoint("hello")
	assert.True(t, ok)
	assert.Equal(t, "/api/hello", e.Path())

	_, ok = ParseEndpoint("both")
	assert.False(t, ok)
}

func TestResponse_FieldsOmitsAbsent(t *testing.T) {
	r := Response{Game: Str("gops"), Message: Str("")}
	// present-but-empty is still present here; hiding it is the view's call
	assert.Equal(t, []Field{{"message", ""}, {"game", "gops"}}, r.Fields())
	assert.Empty(t, Response{}.Fields())
}
