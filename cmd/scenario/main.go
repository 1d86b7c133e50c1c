// Command scenario replays a scripted game and prints what each player saw.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"conquest-server/internal/scenario"
	"conquest-server/internal/shared/config"
	"conquest-server/internal/shared/logger"
)

func main() {
	path := flag.String("file", "", "scenario fixture to replay")
	turns := flag.Int("turns", 0, "override the number of turns")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	slog.SetDefault(logger.New(os.Stderr, config.LoggingConfig{Level: *level}))
	if err := run(*path, *turns); err != nil {
		slog.Error("Scenario failed", "file", *path, "error", err)
		os.Exit(1)
	}
}

func run(path string, turns int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()

	sc, err := scenario.Load(f)
	if err != nil {
		return err
	}
	if turns > 0 {
		sc.Turns = turns
	}

	result, err := scenario.NewRunner(slog.Default()).Run(context.Background(), sc)
	if err != nil {
		return err
	}

	for _, summary := range result.Summaries {
		slog.Info("Turn resolved",
			"turn", summary.Turn,
			"arrivals", summary.Arrivals,
			"battles", summary.Battles,
			"invasions", summary.Invasions,
			"built", summary.Built,
			"events", summary.Events,
		)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, seat := range sc.Players {
		reports, err := result.Service.Reports(seat.ID)
		if err != nil {
			return err
		}
		if err := enc.Encode(map[string]any{"player": seat.ID, "reports": reports}); err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
	}
	return nil
}
