//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"s3-file-drop/internal/config"
	"s3-file-drop/internal/server"
	"s3-file-drop/internal/storage"
)

// TestAPIWorkflow drives the four file endpoints against the bucket named by
// the usual service environment (AWS_BUCKET_NAME, AWS_REGION, ...). It only
// touches one uniquely named object and removes it again.
func TestAPIWorkflow(t *testing.T) {
	srv := setupTestServer(t)
	defer srv.Close()

	client := &http.Client{Timeout: 30 * time.Second}
	name := "integration-" + uuid.NewString() + ".txt"
	content := "integration payload " + name

	t.Run("Ready", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/ready")
		if err != nil {
			t.Fatalf("ready check failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Upload", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile("files", name)
		_, _ = part.Write([]byte(content))
		_ = mw.Close()

		resp, err := client.Post(srv.URL+"/upload", mw.FormDataContentType(), &buf)
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		var result struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		}
		readJSON(t, resp, http.StatusOK, &result)
		if result.Errors != nil {
			t.Fatalf("upload reported errors: %v", result.Errors)
		}
	})

	t.Run("List", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/files")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var objects []storage.Object
		readJSON(t, resp, http.StatusOK, &objects)

		found := false
		for _, o := range objects {
			if o.Key == name {
				found = true
				if o.Size != int64(len(content)) {
					t.Errorf("size = %d, want %d", o.Size, len(content))
				}
			}
		}
		if !found {
			t.Errorf("uploaded object %s not listed", name)
		}
	})

	t.Run("Download", func(t *testing.T) {
		resp, err := postFilename(client, srv.URL+"/download", name)
		if err != nil {
			t.Fatalf("download request failed: %v", err)
		}
		var dl struct {
			URL string `json:"url"`
		}
		readJSON(t, resp, http.StatusOK, &dl)

		got, err := client.Get(dl.URL)
		if err != nil {
			t.Fatalf("fetching signed url failed: %v", err)
		}
		defer got.Body.Close()
		b, _ := io.ReadAll(got.Body)
		if got.StatusCode != http.StatusOK || string(b) != content {
			t.Errorf("signed url returned %d %q", got.StatusCode, string(b))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		resp, err := postFilename(client, srv.URL+"/delete", name)
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		var result map[string]string
		readJSON(t, resp, http.StatusOK, &result)

		resp, err = postFilename(client, srv.URL+"/delete", name)
		if err != nil {
			t.Fatalf("second delete failed: %v", err)
		}
		readJSON(t, resp, http.StatusInternalServerError, &result)
		if result["error"] == "" {
			t.Error("expected a backend error for a missing key")
		}
	})
}

// setupTestServer builds the real server from the process environment.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if os.Getenv("AWS_BUCKET_NAME") == "" {
		t.Skip("AWS_BUCKET_NAME not set; integration test needs a real bucket")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	srv := server.New(server.Config{
		Build:  server.BuildInfo{Version: "integration"},
		Store:  store,
		Logger: zerolog.New(zerolog.NewTestWriter(t)),
	})
	return httptest.NewServer(srv.Handler())
}

func postFilename(client *http.Client, url, filename string) (*http.Response, error) {
	b, _ := json.Marshal(map[string]string{"filename": filename})
	return client.Post(url, "application/json", bytes.NewReader(b))
}

func readJSON(t *testing.T, resp *http.Response, wantStatus int, v any) {
	t.Helper()
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("Expected status %d, got %d: %s", wantStatus, resp.StatusCode, string(b))
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", string(b), err)
	}
}
