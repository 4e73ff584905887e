package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/auth"
	"github.com/hal9000y/gmail-scheduler/internal/scheduler"
	"github.com/hal9000y/gmail-scheduler/internal/tool"
)

var serveOpts struct {
	httpAddr string
	oauthURL string
	stdio    bool
	auto     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scheduling tools over MCP and handle the Google OAuth callback",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.httpAddr, "http-addr", "localhost:0", "HTTP server listen addr")
	serveCmd.Flags().StringVar(&serveOpts.oauthURL, "oauth-url", "", "OAuth redirect URL, default http://<http-addr>/oauth")
	serveCmd.Flags().BoolVar(&serveOpts.stdio, "stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	serveCmd.Flags().BoolVar(&serveOpts.auto, "auto", false, "Also run auto processing every poll_interval")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ln, err := net.Listen("tcp", serveOpts.httpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	redirectURL := fmt.Sprintf("http://%s/oauth", ln.Addr().String())
	if serveOpts.oauthURL != "" {
		redirectURL = serveOpts.oauthURL
	}

	a, err := newApp(ctx, appOptions{redirectURL: redirectURL, classifier: true})
	if err != nil {
		ln.Close()
		return err
	}
	defer a.Close()

	mcpSrv := tool.NewServer(a.toolDeps())

	mux := http.NewServeMux()
	mux.Handle("/oauth", auth.NewHTTPHandler(a.tok, logger))
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mcpSrv }, nil))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !a.tok.Authorized() {
		openBrowser(redirectURL)
	}

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if serveOpts.stdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mcpSrv)
		defer stopStdio()
	}

	if serveOpts.auto {
		d, err := scheduler.NewDaemon(a.processor, cfg.PollInterval, nil, logger)
		if err != nil {
			return err
		}
		stopDaemon := runInBackground(ctx, d.Run)
		defer stopDaemon()
	}

	select {
	case err := <-errHTTPCh:
		return err
	case err := <-errStdioCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}
	return nil
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		logger.Info("starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		logger.Info("stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		logger.Info("starting http server", zap.String("addr", ln.Addr().String()))

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			logger.Error("http server failed", zap.Error(err))
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("srv.Shutdown failed", zap.Error(err))
		}

		<-errHTTPCh
		logger.Info("http server stopped")
	}, errHTTPCh
}

// runInBackground runs fn until the returned stop func is called.
func runInBackground(parent context.Context, fn func(context.Context) error) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fn(ctx); err != nil {
			logger.Error("background task failed", zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func openBrowser(url string) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		logger.Warn("could not open browser automatically, open the link manually",
			zap.Error(err),
			zap.String("url", url),
		)
	}
}
