package main

import (
	"testing"

	"intervai/internal/routers"
)

func TestServerWriteTimeoutOutlastsRequestTimeout(t *testing.T) {
	server := newServer("8080", nil)
	if server.WriteTimeout <= routers.RequestTimeout {
		t.Fatalf("write timeout %v must exceed the per-request timeout %v",
			server.WriteTimeout, routers.RequestTimeout)
	}
	if server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", server.Addr)
	}
}
