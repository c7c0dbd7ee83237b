package dingsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDingSdk_NotifyText(t *testing.T) {
	var received DingNotify
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer server.Close()

	sdk := NewDingSdk(server.URL)
	assert.True(t, sdk.Enabled())
	result, err := sdk.NotifyText(context.Background(), "current price: 72.121164780")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.ErrMsg)
	assert.Equal(t, "text", received.MsgType)
	assert.Equal(t, "current price: 72.121164780", received.Text.Content)
	assert.False(t, received.At.IsAtAll)
}

func TestDingSdk_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":310000,"errmsg":"keywords not in content"}`))
	}))
	defer server.Close()

	_, err := NewDingSdk(server.URL).NotifyText(context.Background(), "x")
	assert.ErrorContains(t, err, "310000")
}

func TestDingSdk_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewDingSdk(server.URL).NotifyText(context.Background(), "x")
	assert.ErrorContains(t, err, "502")
}

func TestDingSdk_Disabled(t *testing.T) {
	assert.False(t, NewDingSdk("").Enabled())
	var sdk *DingSdk
	assert.False(t, sdk.Enabled())
}
