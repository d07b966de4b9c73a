// Command testserver runs a local HTTP target to aim volleys at.
//
// Usage:
//
//	testserver [-host localhost] [-port 8080]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"volley/testserver"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	flag.Parse()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           testserver.NewServer().Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Printf("Volley test server listening on http://%s\n\n", addr)
	fmt.Println("  GET /health            health check")
	fmt.Println("  GET /status/{code}     fixed status")
	fmt.Println("  GET /delay/{ms}        slow response")
	fmt.Println("  GET /fail-every?n=3    500 on every n-th request")
	fmt.Printf("  GET /quota?limit=%-4d   429 once the per-key quota is spent (&key=k)\n", testserver.DefaultQuota)
	fmt.Println("  GET /quota-json        same, as 200 with {\"error\":{\"code\":\"rate_limited\"}}")
	fmt.Println("  GET /quota/reset       reset quotas (?key=k)")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
