/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/suparena/cloudadapter"
	"github.com/suparena/cloudadapter/config"
	"github.com/suparena/cloudadapter/httpapi"
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Serve the configured services over HTTP"`
	Check   CheckCmd   `cmd:"" help:"Verify the credentials of every configured service"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

type ServeCmd struct {
	Config string `name:"config" short:"c" default:"cloudadapter.yaml" help:"Path to the configuration file"`
	Listen string `name:"listen" help:"Listen address, overrides the configuration"`
	Debug  bool   `name:"debug" help:"Development logging at debug level"`
}

type CheckCmd struct {
	Config  string        `name:"config" short:"c" default:"cloudadapter.yaml" help:"Path to the configuration file"`
	Timeout time.Duration `name:"timeout" default:"30s" help:"Timeout per service"`
}

type VersionCmd struct {
	Short bool `name:"short" help:"Print a single line instead of JSON"`
}

type kongExitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) (exitCode int) {
	cli := CLI{}
	parser, err := kong.New(
		&cli,
		kong.Name("cloudadapter"),
		kong.Description("Uniform record, blob and notification access to AWS services."),
		kong.Writers(out, errOut),
		kong.Exit(func(code int) {
			panic(kongExitCode(code))
		}),
	)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: initialize command parser: %v\n", err)
		return 1
	}
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		code, ok := recovered.(kongExitCode)
		if !ok {
			panic(recovered)
		}
		exitCode = int(code)
	}()

	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		_, _ = fmt.Fprintln(errOut, "Hint: run `cloudadapter --help`.")
		return 1
	}

	switch ctx.Command() {
	case "serve":
		err = runServe(cli.Serve)
	case "check":
		err = runCheck(cli.Check, out)
	case "version":
		err = runVersion(cli.Version, out)
	default:
		err = fmt.Errorf("unsupported command: %s", ctx.Command())
	}
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func runServe(cmd ServeCmd) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if cmd.Listen != "" {
		cfg.Listen = cmd.Listen
	}
	logger, err := newLogger(cfg.LogLevel, cmd.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, err := cloudadapter.Open(ctx, cfg, cloudadapter.WithLogger(logger))
	if err != nil {
		return err
	}
	defer manager.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.New(manager, httpapi.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Listen), zap.Strings("services", manager.Names()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runCheck resolves each service's credentials and asks STS who they
// belong to.
func runCheck(cmd CheckCmd, out io.Writer) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}

	failed := 0
	for _, sc := range cfg.Services {
		ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
		account, err := cloudadapter.Factory(sc, zap.NewNop()).Verify(ctx)
		cancel()
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%-20s %-10s FAILED  %v\n", sc.Name, sc.Type, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%-20s %-10s ok      %s\n", sc.Name, sc.Type, account)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d services failed verification", failed, len(cfg.Services))
	}
	return nil
}

func runVersion(cmd VersionCmd, out io.Writer) error {
	info := cloudadapter.GetVersionInfo()
	if cmd.Short {
		_, err := fmt.Fprintln(out, info.String())
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
