package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gatewayFor(t *testing.T, handler http.HandlerFunc, attempts int) *HTTPUserGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPUserGateway(srv.URL, time.Second, attempts, time.Millisecond, zap.NewNop().Sugar())
}

func TestIsUserActive_Active(t *testing.T) {
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"ok","data":{"id":7,"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","active":true}}`))
	}, 1)

	active, err := gw.IsUserActive(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestIsUserActive_InactiveAndUnknown(t *testing.T) {
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"id":7,"active":false}}`))
	}, 1)
	active, err := gw.IsUserActive(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, active)

	gw = gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"user not found"}`))
	}, 1)
	active, err = gw.IsUserActive(context.Background(), 7)
	require.NoError(t, err, "an unknown user is an answer, not a failure")
	assert.False(t, active)
}

func TestGetUserSummary_UnknownIsNilNil(t *testing.T) {
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"user not found"}`))
	}, 1)

	summary, err := gw.GetUserSummary(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestGetUser_RetriesThenSucceeds(t *testing.T) {
	var calls int
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"id":7,"active":true}}`))
	}, 3)

	active, err := gw.IsUserActive(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 3, calls)
}

func TestGetUser_ExhaustedRetries(t *testing.T) {
	var calls int
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	_, err := gw.IsUserActive(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users service unreachable")
	assert.Equal(t, 2, calls)
}

func TestGetUser_ContextCancelStopsRetries(t *testing.T) {
	gw := gatewayFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.IsUserActive(ctx, 7)
	require.Error(t, err)
}
