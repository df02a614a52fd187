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

	"github.com/example/muralmend/internal/inpaint"
)

type serveCmd struct {
	*root
	fs   *flag.FlagSet
	addr string
}

func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	s := &serveCmd{root: r, fs: fs}
	addr := os.Getenv("MURALMEND_ADDR")
	if addr == "" {
		addr = "127.0.0.1:5000"
	}
	fs.StringVar(&s.addr, "addr", addr, "listen address")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	log := s.log("inpaint")
	srv := inpaint.NewServer(inpaint.WithLogger(log))
	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", s.addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
