package serviceutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
		case <-parent.Done():
		}
		signal.Stop(sigs)
		cancel()
	}()

	return ctx
}

// StartHttpServer serves the handler until the context is done.
func StartHttpServer(ctx context.Context, address string, handler http.Handler) {
	server := &http.Server{
		Addr:    address,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("listening...", "address", address)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		Fatal(fmt.Sprintf("failed to listen on %s", address), err)
	}
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
