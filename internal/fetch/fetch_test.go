package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360
low.m3u8
`

func TestManifestURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		id       string
		expected string
		wantErr  bool
	}{
		{
			name:     "default endpoint",
			baseURL:  DefaultBaseURL,
			id:       "rrn:content:films:abc",
			expected: DefaultBaseURL + "rrn:content:films:abc.m3u8",
		},
		{
			name:     "traversal is escaped",
			baseURL:  "https://example.com/streams/",
			id:       "../admin",
			expected: "https://example.com/streams/..%2Fadmin.m3u8",
		},
		{
			name:    "empty id",
			baseURL: "https://example.com/streams/",
			id:      "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.baseURL, 0).ManifestURL(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFetch_Success(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	raw, manifestURL, err := New(server.URL+"/streams/", time.Second).Fetch(context.Background(), "movie-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if raw != masterPlaylist {
		t.Errorf("Unexpected manifest body %q", raw)
	}
	if requestedPath != "/streams/movie-1.m3u8" {
		t.Errorf("Expected path /streams/movie-1.m3u8, got %s", requestedPath)
	}
	if manifestURL != server.URL+"/streams/movie-1.m3u8" {
		t.Errorf("Unexpected manifest URL %s", manifestURL)
	}
}

func TestFetch_FollowsRedirectBase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/streams/movie-1.m3u8", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cdn/abc/master.m3u8", http.StatusFound)
	})
	mux.HandleFunc("/cdn/abc/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(masterPlaylist))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, manifestURL, err := New(server.URL+"/streams/", time.Second).Fetch(context.Background(), "movie-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if manifestURL != server.URL+"/cdn/abc/master.m3u8" {
		t.Errorf("Expected redirected URL, got %s", manifestURL)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _, err := New(server.URL+"/", time.Second).Fetch(context.Background(), "missing")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", fetchErr.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, _, err := New(server.URL+"/", 50*time.Millisecond).Fetch(context.Background(), "slow")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fetchErr.Err == nil {
		t.Error("Expected underlying cause to be preserved")
	}
}

func TestFetch_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(server.URL+"/", time.Second).Fetch(ctx, "movie-1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	_, _, err := New("not-a-valid-url", time.Second).Fetch(context.Background(), "movie-1")
	if err == nil {
		t.Fatal("Expected error for invalid URL, got nil")
	}
}
