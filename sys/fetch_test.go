package sys

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/icon.png":
			_, _ = w.Write([]byte("icon bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	body, err := f.Fetch(context.Background(), srv.URL+"/icon.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("icon bytes"), body)

	_, err = f.Fetch(context.Background(), srv.URL+"/gone.png")
	assert.ErrorContains(t, err, "404")
}

func TestFetcherCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(5*time.Second).Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
