package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/torb/internal/cli/config"
	"github.com/rustyeddy/torb/internal/cli/data"
	"github.com/rustyeddy/torb/internal/server"
	"github.com/rustyeddy/torb/journal"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		addr      string
		poll      int
		env       string
		token     string
		baseURL   string
		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live signal monitor",
		Long: `Serve exposes the engine over HTTP and streams signal events on /ws.

Closed candles can be pushed to POST /api/candles/:symbol, or pulled from
OANDA every --poll seconds for the configured symbols.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("poll") {
				cfg.Server.PollSeconds = poll
			}

			var j journal.Journal
			if !noJournal {
				var err error
				if j, err = rc.OpenJournal(); err != nil {
					return err
				}
				defer j.Close()
			}

			var src server.CandleSource
			if cfg.Server.PollSeconds > 0 {
				tok, err := data.Token(token)
				if err != nil {
					return err
				}
				c, err := data.NewClient(env, tok, baseURL)
				if err != nil {
					return err
				}
				src = c
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, j, rc.Log)
			rc.Log.Info("starting server",
				zap.String("addr", cfg.Server.Addr),
				zap.Strings("symbols", cfg.Symbols),
				zap.Int("poll_seconds", cfg.Server.PollSeconds))
			return srv.Run(ctx, src)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&poll, "poll", 0, "poll OANDA for closed candles every N seconds (0 = push only)")
	cmd.Flags().StringVar(&env, "env", "practice", "OANDA environment: practice|live")
	cmd.Flags().StringVar(&token, "token", "", "OANDA API token (or env OANDA_TOKEN)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override OANDA base URL")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not journal live trades")

	return cmd
}
