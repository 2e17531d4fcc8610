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

	"github.com/spf13/cobra"

	watcher "github.com/goliatone/go-watcher"
	"github.com/goliatone/go-watcher/adapters/gologger"
	"github.com/goliatone/go-watcher/core"
	"github.com/goliatone/go-watcher/security"
)

var Version = "dev"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "watcher",
		Short:         "Relay flagged payment gateway result codes to a chat channel",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	serve := serveCmd()
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(sealCmd())
	rootCmd.RunE = serve.RunE

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /watcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func sealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a JSON document from stdin into gateway headers and body",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			secret, _ := cmd.Flags().GetString("key")
			if secret == "" {
				secret = cfg.Crypto.SecretKey
			}
			key, err := core.ParseSecretKey(secret)
			if err != nil {
				return err
			}
			plaintext, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if !json.Valid(plaintext) {
				return fmt.Errorf("stdin is not a valid json document")
			}
			ivHex, tagHex, bodyHex, err := security.SealHex(key, plaintext)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", security.HeaderInitializationVector, ivHex)
			fmt.Fprintf(out, "%s: %s\n", security.HeaderAuthenticationTag, tagHex)
			fmt.Fprintf(out, "body: %s\n", bodyHex)
			return nil
		},
	}
	cmd.Flags().String("key", "", "hex AES-256 key (defaults to BIP_SECRET)")
	return cmd
}

func loadConfig(cmd *cobra.Command) (core.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := core.LoadDotEnv(envFile); err != nil {
		return core.Config{}, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return core.LoadConfig(ctx, core.Config{}, core.NewCfgxConfigProvider(core.NewEnvConfigLoader()), core.GoOptionsResolver{})
}

func serve(ctx context.Context, cfg core.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := gologger.NewLogrusProvider(
		gologger.WithLevel(cfg.Log.Level),
		gologger.WithFormat(cfg.Log.Format),
	)
	app, err := watcher.NewApp(cfg, watcher.WithAppLoggerProvider(provider))
	if err != nil {
		return err
	}
	logger := app.Logger()

	srv := &http.Server{
		Addr:              app.Config().ListenAddr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("watcher listening",
			"addr", srv.Addr,
			"version", Version,
			"flagged_codes", app.Watcher().FlaggedCodes().Len(),
			"config", core.RedactedConfig(app.Config()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("watcher shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err.Error())
	}
	if err := app.Drain(shutdownCtx); err != nil {
		logger.Warn("notification tasks still pending at shutdown", "error", err.Error())
	}
	return nil
}
