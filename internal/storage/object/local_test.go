package object

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/audio/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Put(context.Background(), "sessions/sess-1/answer.webm", []byte("audio"), "audio/webm")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/audio/sessions/sess-1/answer.webm" {
		t.Errorf("unexpected url: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sessions", "sess-1", "answer.webm"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "audio" {
		t.Errorf("unexpected contents: %q", data)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/audio")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Put(context.Background(), "../escape.webm", []byte("x"), "audio/webm"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
}
