package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pickdb/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	Schema string // optional schema applied before serving
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the record API over HTTP",
		Long: `Serve tables, dictionaries and records as JSON over HTTP.

The server runs until interrupted (SIGINT or SIGTERM), then drains
in-flight requests within the configured shutdown timeout.

Example:
  pickdb serve --db ./shop.db --addr :8080
  pickdb serve --db ./shop.db --schema ./schemas`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address, overrides config")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema applied before serving")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	if opts.Schema != "" {
		if err := runApply(opts.RootOptions, opts.Schema, cmd); err != nil {
			return err
		}
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	addr := sess.cfg.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			sess.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := httpapi.NewServer(sess.facade, sess.logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", addr)

	if err := srv.ListenAndServe(ctx, addr, sess.cfg.HTTP.ReadTimeout, sess.cfg.HTTP.ShutdownTimeout); err != nil {
		return WrapExitError(ExitCommandError, "server error", err)
	}
	sess.logger.Info("server stopped gracefully")
	return nil
}
