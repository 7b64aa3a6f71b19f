package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantEndpoint string
		wantSecure   bool
		wantErr      bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://minio:9000", "minio:9000", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"https://s3.eu-west-1.amazonaws.com", "s3.eu-west-1.amazonaws.com", true, false},
		{"http://minio:9000/foo", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		ep, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for input %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.in, err)
		}
		if ep != tt.wantEndpoint || secure != tt.wantSecure {
			t.Fatalf("normaliseEndpoint(%q) = (%q,%v), want (%q,%v)", tt.in, ep, secure, tt.wantEndpoint, tt.wantSecure)
		}
	}
}

func TestNewMinio_Incomplete(t *testing.T) {
	if _, err := NewMinio(Config{Endpoint: "minio:9000", Bucket: "files"}); err == nil {
		t.Fatal("expected error when credentials are missing")
	}
	if _, err := NewMinio(Config{Bucket: "files", AccessKey: "a", SecretKey: "b"}); err == nil {
		t.Fatal("expected error when endpoint is missing")
	}
}

func TestNewMinio_NoNetwork(t *testing.T) {
	st, err := NewMinio(Config{
		Endpoint:  "http://127.0.0.1:9",
		Bucket:    "files",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewMinio: %v", err)
	}
	if st.bucket != "files" {
		t.Fatalf("bucket = %q, want files", st.bucket)
	}
}

// listBucketPage renders a ListObjectsV2 response holding keys.
func listBucketPage(keys []string, next string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>files</Name>`)
	fmt.Fprintf(&b, "<KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys>", len(keys))
	if next != "" {
		fmt.Fprintf(&b, "<IsTruncated>true</IsTruncated><NextContinuationToken>%s</NextContinuationToken>", next)
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><LastModified>2024-05-01T12:00:00.000Z</LastModified><ETag>&quot;abc&quot;</ETag><Size>1</Size><StorageClass>STANDARD</StorageClass></Contents>", k)
	}
	b.WriteString("</ListBucketResult>")
	return b.String()
}

func TestMinioStore_ListStopsAfterOnePage(t *testing.T) {
	firstPage := make([]string, listPageSize)
	for i := range firstPage {
		firstPage[i] = fmt.Sprintf("k%04d.txt", i)
	}

	var (
		requests atomic.Int32
		maxKeys  atomic.Value
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list-type") != "2" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		requests.Add(1)
		maxKeys.Store(r.URL.Query().Get("max-keys"))

		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "" {
			fmt.Fprint(w, listBucketPage(firstPage, "page-2"))
			return
		}
		fmt.Fprint(w, listBucketPage([]string{"overflow.txt"}, ""))
	}))
	defer srv.Close()

	st, err := NewMinio(Config{
		Endpoint:  srv.URL,
		Bucket:    "files",
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewMinio: %v", err)
	}

	objs, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != listPageSize {
		t.Fatalf("len(objs) = %d, want %d", len(objs), listPageSize)
	}
	if objs[0].Key != "k0000.txt" || objs[0].ETag != "abc" {
		t.Fatalf("objs[0] = %+v", objs[0])
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("list requests = %d, want 1", n)
	}
	if got := maxKeys.Load(); got != "1000" {
		t.Fatalf("max-keys = %v, want 1000", got)
	}
}
