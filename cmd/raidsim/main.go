// Command raidsim plays raids against a running engine: it registers a
// party, starts an encounter, drives the turn rotation over HTTP, and
// verifies the final record.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/simulate"
)

// Default configuration constants.
const (
	defaultPartySize  = 5
	defaultTier       = 3
	defaultMaxRounds  = 60
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

var baseURL string

func buildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "raidsim",
		Short: "raidsim: drive a raid engine end to end",
		Long: `raidsim exercises a running raid engine over its HTTP API:
it seeds a party of characters, starts an encounter, plays the turn
rotation until the monster falls or the party retreats, and verifies
damage accounting and loot delivery on the final record.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:9080", "base URL of the service")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	var (
		party   int
		tier    int
		monster string
		hearts  int
		village string
		rounds  int
		contend bool
		timeout time.Duration
		logFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one raid from start to finish",
		Long:  "Register a party, start an encounter, and drive turns until the fight ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if party < 1 {
				return fmt.Errorf("party size must be at least 1, got %d", party)
			}
			if tier < 1 {
				return fmt.Errorf("monster tier must be at least 1, got %d", tier)
			}
			if rounds < 1 {
				return fmt.Errorf("round budget must be at least 1, got %d", rounds)
			}

			if err := simulate.SetupLogging(logFile); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
			defer cancel()

			config := &simulate.Config{
				BaseURL:       baseURL,
				PartySize:     party,
				Tier:          tier,
				MonsterName:   monster,
				MonsterHearts: hearts,
				Village:       village,
				MaxRounds:     rounds,
				Contend:       contend,
				Timeout:       timeout,
				LogFile:       logFile,
				Verbose:       verbose,
			}

			return simulate.Run(ctx, config)
		},
	}

	cmd.Flags().IntVar(&party, "party", defaultPartySize, "number of characters to create and join")
	cmd.Flags().IntVar(&tier, "tier", defaultTier, "monster tier for the encounter")
	cmd.Flags().StringVar(&monster, "monster", "Hinox", "monster display name")
	cmd.Flags().IntVar(&hearts, "hearts", 0, "monster hearts (0 sizes from tier)")
	cmd.Flags().StringVar(&village, "village", "rudania", "village hosting the raid")
	cmd.Flags().IntVar(&rounds, "rounds", defaultMaxRounds, "rounds to play before the party retreats")
	cmd.Flags().BoolVar(&contend, "contend", false, "every member attacks each round; only the holder lands")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&logFile, "log", "", "log file for simulation output (default: raidsim_TIMESTAMP.log)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every landed turn")

	return cmd
}

func buildStatusCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine statistics",
		Long:  "Fetch and display the running engine's stats endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			stats, err := simulate.FetchStats(ctx, baseURL, timeout)
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Printf("Engine stats (%s):\n", baseURL)
			for _, k := range keys {
				fmt.Printf("  %-16s %v\n", k, stats[k])
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")

	return cmd
}

func main() {
	if err := buildCLI().Execute(); err != nil {
		os.Stderr.WriteString("raidsim failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
