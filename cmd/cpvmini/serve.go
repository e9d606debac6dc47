package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CK6170/CPVmini-go/internal/server"
)

var (
	serveAddr = "127.0.0.1:8080"
	serveWeb  = ""
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP and websocket API",
		GroupID: gBasic,
		Long: `Serve the HTTP and websocket API on --addr.

Readings, piston limits and state changes are pushed to /ws/events.
When --web points at a directory, it is served for every other path.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.mgr, a.curves, a.conf, a.hub, server.Options{
				Name:    appName,
				Version: version,
				WebRoot: serveWeb,
			})
			hs := &http.Server{
				Addr:              serveAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.PumpEvents(gctx)
			})
			g.Go(func() error {
				logrus.Infof("serving on http://%s", serveAddr)
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logrus.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return hs.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "http listen address")
	cmd.Flags().StringVar(&serveWeb, "web", "", "directory with a web front end to serve")

	return cmd
}
