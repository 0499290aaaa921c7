package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/filebridge/internal/transfer/codec"
)

func TestPushSendsTaskEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := NewHTTPCallbackClient(time.Second)
	rows := []codec.Row{{"name": "alice"}}
	err := client.Push(context.Background(), srv.URL, "t-1", "PROCESSING", rows)
	require.NoError(t, err)

	assert.Equal(t, "t-1", got["taskId"])
	assert.Equal(t, "PROCESSING", got["status"])
	assert.Len(t, got["data"], 1)
}

func TestPushNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPCallbackClient(time.Second)
	err := client.Push(context.Background(), srv.URL, "t-1", "COMPLETED", nil)
	assert.ErrorContains(t, err, "502")
}

func TestPullSendsFormAndDecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "t-2", r.PostFormValue("taskId"))
		assert.Equal(t, "1000", r.PostFormValue("offset"))
		assert.Equal(t, "1000", r.PostFormValue("limit"))
		assert.Equal(t, `{"dept":"sales"}`, r.PostFormValue("callbackParams"))

		_ = json.NewEncoder(w).Encode(PullPage{
			Data:    []codec.Row{{"name": "bob"}},
			HasMore: true,
		})
	}))
	defer srv.Close()

	client := NewHTTPCallbackClient(time.Second)
	page, err := client.Pull(context.Background(), srv.URL, PullRequest{
		TaskID: "t-2",
		Offset: 1000,
		Limit:  1000,
		Params: `{"dept":"sales"}`,
	})
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "bob", page.Data[0]["name"])
}

func TestPullBadJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	client := NewHTTPCallbackClient(time.Second)
	_, err := client.Pull(context.Background(), srv.URL, PullRequest{TaskID: "t"})
	assert.ErrorContains(t, err, "decode pull page")
}
