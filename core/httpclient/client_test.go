package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"name":"gala"}`))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL+"/events", url.Values{"page": {"2"}}, nil)
	require.NoError(t, err)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, DoJSON(New(time.Second), req, &out))
	assert.Equal(t, "gala", out.Name)
}

func TestDoJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL+"/events", url.Values{"key": {"secret"}}, nil)
	require.NoError(t, err)

	err = DoJSON(New(time.Second), req, &struct{}{})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad key", statusErr.Body)
	assert.False(t, strings.Contains(err.Error(), "secret"))
}

func TestDoJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)

	err = DoJSON(New(time.Second), req, &struct{}{})

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDoXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<root><item id="7"/></root>`))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)

	var out struct {
		Item struct {
			ID string `xml:"id,attr"`
		} `xml:"item"`
	}
	require.NoError(t, DoXML(New(time.Second), req, &out))
	assert.Equal(t, "7", out.Item.ID)
}

func TestNewRequest_JSONBody(t *testing.T) {
	req, err := NewRequest(context.Background(), http.MethodPost, "http://example.test/graphql", nil, map[string]string{"query": "{ a }"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}
