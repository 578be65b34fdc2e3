//go:build browser

package lightpollution

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a local Chrome or Chromium.
// Run with: go test -tags=browser ./internal/adapter/lightpollution/ -v -count=1

func TestBrowserFetcher_RendersScriptContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span id="out"></span>
			<script>document.getElementById("out").setAttribute("data-bortle", "4");</script>
		</body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	html, err := NewBrowserFetcher(200*time.Millisecond).Fetch(ctx, srv.URL)
	require.NoError(t, err)

	v, err := ExtractBortle(html)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}
