package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"earnings-transcripts/pkg/config"
	"earnings-transcripts/pkg/facade"
	"earnings-transcripts/pkg/logger"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults are used when empty)")
		transport  = flag.String("transport", "", "stdio or http, overrides server.mcp_transport")
		backendURL = flag.String("backend", "", "Backend base URL, overrides server.backend_url")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if *transport != "" {
		cfg.Server.MCPTransport = *transport
	}
	if *backendURL != "" {
		cfg.Server.BackendURL = *backendURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := facade.NewBackend(cfg.Server.BackendURL, nil)
	server := facade.NewServer(backend)

	switch cfg.Server.MCPTransport {
	case "stdio":
		logger.Log.Infof("MCP server on stdio, backend %s", cfg.Server.BackendURL)
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("MCP server failed: %v", err)
		}
	case "http":
		serveHTTP(ctx, cfg.Server.MCPAddr, server, backend)
	default:
		log.Fatalf("Unknown transport %q", cfg.Server.MCPTransport)
	}
}

func serveHTTP(ctx context.Context, addr string, server *mcp.Server, backend *facade.Backend) {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	mux.Handle("GET /health", facade.HealthHandler(backend))
	mux.Handle("GET /debug/sources", facade.SourcesHandler(backend))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Log.Infof("MCP server listening on %s/mcp", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("MCP server failed: %v", err)
	}
}
