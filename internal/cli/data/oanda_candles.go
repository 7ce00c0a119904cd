package data

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/torb/internal/cli/config"
	"github.com/rustyeddy/torb/internal/oanda"
	"github.com/rustyeddy/torb/market"
)

// Token resolves the API token from the flag or OANDA_TOKEN.
func Token(flag string) (string, error) {
	token := strings.TrimSpace(flag)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("OANDA_TOKEN"))
	}
	if token == "" {
		return "", fmt.Errorf("missing token: set --token or env OANDA_TOKEN")
	}
	return token, nil
}

// NewClient builds an OANDA client, honouring OANDA_BASE_URL.
func NewClient(env, token, baseURL string) (*oanda.Client, error) {
	c, err := oanda.NewClient(env, token)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("OANDA_BASE_URL"))
	}
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return c, nil
}

func parseTime(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --%s: %w", name, err)
	}
	return t, nil
}

func newOandaCandlesCmd(rc *config.RootConfig) *cobra.Command {
	var (
		env        string
		token      string
		instrument string
		gran       string
		price      string

		fromStr string
		toStr   string
		count   int

		outPath string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "candles",
		Short: "Download OANDA instrument candles and write CSV",
		Long: `Download candles from the OANDA v20 API into a CSV that the
backtest command reads directly.

Example:
  torb data oanda candles --instrument USD_JPY --granularity M15 \
    --from 2024-01-01 --to 2024-02-01 --out usdjpy_m15.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := Token(token)
			if err != nil {
				return err
			}
			inst, err := market.Lookup(instrument)
			if err != nil {
				return err
			}
			if outPath == "" {
				return fmt.Errorf("missing --out")
			}

			from, err := parseTime("from", fromStr)
			if err != nil {
				return err
			}
			to, err := parseTime("to", toStr)
			if err != nil {
				return err
			}
			if !from.IsZero() && !to.IsZero() && !from.Before(to) {
				return fmt.Errorf("--from must be before --to")
			}
			if count <= 0 && (from.IsZero() || to.IsZero()) {
				return fmt.Errorf("provide either --count or both --from and --to")
			}

			client, err := NewClient(env, tok, baseURL)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := client.DownloadCandlesToCSV(cmd.Context(), oanda.CandlesOptions{
				Instrument:  inst.Symbol,
				Granularity: gran,
				Price:       price,
				From:        from,
				To:          to,
				Count:       count,
			}, f)
			if err != nil {
				return err
			}

			rc.Log.Info("downloaded candles",
				zap.String("instrument", inst.Symbol),
				zap.String("granularity", gran),
				zap.Int("candles", n),
				zap.String("out", outPath))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d candles to %s\n", n, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "practice", "OANDA environment: practice|live")
	cmd.Flags().StringVar(&token, "token", "", "OANDA API token (or env OANDA_TOKEN)")

	cmd.Flags().StringVar(&instrument, "instrument", "USD_JPY", "Instrument (e.g. USD_JPY)")
	cmd.Flags().StringVar(&gran, "granularity", "M15", "Granularity (e.g. M5, M15, H1)")
	cmd.Flags().StringVar(&price, "price", "M", "Price component: M (mid), B (bid), A (ask)")

	cmd.Flags().StringVar(&fromStr, "from", "", "RFC3339 or YYYY-MM-DD start time (inclusive)")
	cmd.Flags().StringVar(&toStr, "to", "", "RFC3339 or YYYY-MM-DD end time (exclusive)")
	cmd.Flags().IntVar(&count, "count", 0, "Number of candles (alternative to from/to)")

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override OANDA base URL (for testing)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output CSV path")

	return cmd
}
