// Command analyze runs a single page analysis and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Harvey-AU/seo-checker/internal/analyzer"
	"github.com/Harvey-AU/seo-checker/internal/util"
)

func main() {
	godotenv.Load(".env.local", ".env")

	config := analyzer.ConfigFromEnv()

	offline := flag.Bool("offline", config.Offline, "Skip the page-rank lookup")
	statusOnly := flag.Bool("status", false, "Only report reachability of the URL")
	timeout := flag.Duration("timeout", config.FetchTimeout, "Deadline for the page fetch")
	workers := flag.Int("workers", config.LinkWorkers, "Concurrent link probes")
	maxLinks := flag.Int("max-links", config.MaxLinks, "Maximum anchors to probe, 0 for all")
	tech := flag.Bool("tech", config.DetectTechnologies, "Detect technologies used by the page")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	target := util.NormaliseTargetURL(flag.Arg(0))
	if target == "" {
		fmt.Fprintf(os.Stderr, "invalid url: %q\n", flag.Arg(0))
		os.Exit(2)
	}

	config.Offline = *offline
	config.FetchTimeout = *timeout
	config.LinkWorkers = *workers
	config.MaxLinks = *maxLinks
	config.DetectTechnologies = *tech && !*statusOnly

	engine, err := analyzer.New(config, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise engine: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var out any
	if *statusOnly {
		out = engine.Status(ctx, target)
	} else {
		result, err := engine.Analyze(ctx, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
			os.Exit(1)
		}
		out = result
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
}
