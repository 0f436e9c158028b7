package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/rutinas/internal/client"
)

func main() {
	actionsPath := flag.String("actions", "-", "JSON-lines file of encoded actions (- for stdin)")
	serverURL := flag.String("server", "", "replay against a rutinas server instead of a local store")
	apiKey := flag.String("api-key", os.Getenv("RUTINAS_AUTH_API_KEY"), "API key for -server")
	save := flag.Bool("save", false, "save the routine to the server library after replay (requires -server)")
	keepGoing := flag.Bool("keep-going", false, "log rejected actions and continue instead of stopping")
	verbose := flag.Bool("v", false, "log every applied action")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *save && *serverURL == "" {
		log.Error("-save requires -server")
		os.Exit(2)
	}

	in := os.Stdin
	if *actionsPath != "-" {
		f, err := os.Open(*actionsPath)
		if err != nil {
			log.Error("opening actions file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var target replayer
	if *serverURL != "" {
		r, err := newRemote(ctx, client.New(*serverURL, *apiKey))
		if err != nil {
			log.Error("connecting to server", "server", *serverURL, "error", err)
			os.Exit(1)
		}
		target = r
	} else {
		target = newLocal(log)
	}

	stats, err := replay(ctx, in, target, *keepGoing, log)
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
	log.Info("replay complete", "applied", stats.applied, "rejected", stats.rejected)

	final, err := target.current(ctx)
	if err != nil {
		log.Error("reading final routine", "error", err)
		os.Exit(1)
	}
	if *save {
		final, err = target.(*remote).save(ctx)
		if err != nil {
			log.Error("saving routine", "error", err)
			os.Exit(1)
		}
		log.Info("routine saved", "id", *final.ID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(final); err != nil {
		log.Error("writing routine", "error", err)
		os.Exit(1)
	}
	if err := target.close(ctx); err != nil {
		log.Warn("closing session", "error", err)
	}
}

type replayStats struct {
	applied  int
	rejected int
}

// replay feeds each non-blank line of in to target.
func replay(ctx context.Context, in io.Reader, target replayer, keepGoing bool, log *slog.Logger) (replayStats, error) {
	var stats replayStats
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := target.apply(ctx, data); err != nil {
			if !keepGoing {
				return stats, fmt.Errorf("line %d: %w", line, err)
			}
			stats.rejected++
			log.Warn("action rejected", "line", line, "error", err)
			continue
		}
		stats.applied++
		log.Debug("action applied", "line", line)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading actions: %w", err)
	}
	return stats, nil
}
