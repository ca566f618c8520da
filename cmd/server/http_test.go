package main

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/pkg/lifecycle"
)

func TestHTTPServerStartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            ln.Addr().(*net.TCPAddr).Port,
		ShutdownTimeout: "1s",
	}
	srv := newHTTPServer(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := srv.Start(lifecycle.New()); err == nil {
		t.Error("Start() succeeded on a bound port")
	}
}
