package main

import (
	"testing"

	gatehttp "gatehouse/internal/platform/http"
	"gatehouse/internal/testutil"
)

func TestMainWiring(t *testing.T) {
	srv := testutil.NewServer(t)
	handler, err := gatehttp.Routes(srv)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	if handler == nil {
		t.Fatalf("expected router handler")
	}
}
