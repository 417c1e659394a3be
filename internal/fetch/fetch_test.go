package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
)

func TestDownloadSuccess(t *testing.T) {
	want := Response{
		URL:    "https://foo.ics.uci.edu/",
		Status: 200,
		RawResponse: &RawResponse{
			URL:     "https://foo.ics.uci.edu/",
			Content: []byte("<html><body>hi</body></html>"),
		},
	}
	body, err := cbor.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		w.Write(body)
	}))
	defer srv.Close()

	host, portStr := splitHostPort(t, srv.URL)
	port, _ := strconv.Atoi(portStr)
	c := NewClient(host, port, "test-agent", zerolog.Nop())

	got := c.Download(context.Background(), "https://foo.ics.uci.edu/")
	if got.Status != 200 || got.RawResponse == nil || string(got.RawResponse.Content) != "<html><body>hi</body></html>" {
		t.Fatalf("got %+v", got)
	}
}

func TestDownloadTransportError(t *testing.T) {
	c := NewClient("127.0.0.1", 1, "test-agent", zerolog.Nop())
	got := c.Download(context.Background(), "https://foo.ics.uci.edu/")
	if got.Status != 600 || got.Error == "" {
		t.Fatalf("expected synthetic 600 status, got %+v", got)
	}
}

func TestDownloadDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		w.Write([]byte("not cbor"))
	}))
	defer srv.Close()

	host, portStr := splitHostPort(t, srv.URL)
	port, _ := strconv.Atoi(portStr)
	c := NewClient(host, port, "test-agent", zerolog.Nop())

	got := c.Download(context.Background(), "https://foo.ics.uci.edu/")
	if got.Status != 502 || got.Error == "" {
		t.Fatalf("expected decode error carrying upstream status, got %+v", got)
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, string) {
	t.Helper()
	rawURL = strings.TrimPrefix(rawURL, "http://")
	parts := strings.SplitN(rawURL, ":", 2)
	if len(parts) != 2 {
		t.Fatalf("could not split host:port from %q", rawURL)
	}
	return parts[0], parts[1]
}
