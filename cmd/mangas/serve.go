package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kerbaras/mangaread/pkg/api"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library over HTTP",
	Long: `Serve chapters, reading progress and reader preferences to remote readers.

Readers point server_url at this address and set a token. Without --token
every request reads and writes the progress of the configured user.

Example:
  mangaread serve --addr 0.0.0.0:8080 --token alice=s3cret --token bob=hunter2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zerolog.New(os.Stdout).Level(level()).With().Timestamp().Str("app", "mangaread-server").Logger()

		rawTokens, _ := cmd.Flags().GetStringArray("token")
		tokens, err := parseTokens(rawTokens)
		if err != nil {
			return err
		}

		e, err := openEnv(logger)
		if err != nil {
			return err
		}
		defer e.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = e.cfg.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(logger, e.library, tokens).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info().Str("addr", addr).Int("tokens", len(tokens)).Str("db", e.cfg.DBPath).Msg("listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("http server crashed")
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: addr from the config)")
	serveCmd.Flags().StringArray("token", nil, "user=token pair allowed to use the API (repeatable)")
}

// parseTokens turns "user=token" pairs into a token to user map.
func parseTokens(pairs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		user, token, ok := strings.Cut(pair, "=")
		user, token = strings.TrimSpace(user), strings.TrimSpace(token)
		if !ok || user == "" || token == "" {
			return nil, fmt.Errorf("invalid --token %q, want user=token", pair)
		}
		if other, dup := tokens[token]; dup {
			return nil, fmt.Errorf("token of %s is also used by %s", user, other)
		}
		tokens[token] = user
	}
	return tokens, nil
}
