package gitzen

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gitzen/gitzen/internal/metadata"
	"github.com/gitzen/gitzen/internal/types"
)

func TestUploadDocument(t *testing.T) {
	doc, err := metadata.Extract([]types.RawFinding{{File: "a.env", RuleID: "r", Secret: "hunter2", Email: "a@b.c"}},
		types.ScanContext{Repository: "org/repo"})
	if err != nil {
		t.Fatal(err)
	}

	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := uploadDocument(context.Background(), srv.URL, "tok", doc); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"secret_hash"`) || strings.Contains(gotBody, "hunter2") || strings.Contains(gotBody, "a@b.c") {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestUploadDocument_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	doc, err := metadata.Extract(nil, types.ScanContext{Repository: "org/repo"})
	if err != nil {
		t.Fatal(err)
	}
	err = uploadDocument(context.Background(), srv.URL, "", doc)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}
