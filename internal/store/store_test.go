package store_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newClient serves r over httptest and returns a client pointed at it.
func newClient(t *testing.T, r *gin.Engine) (*apiclient.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(srv.URL, discardLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}
