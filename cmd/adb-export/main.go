package main

import (
	"context"
	"flag"
	"log"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/internal/runner"
	"github.com/cognicore/dishgraph/pkg/dishgraph/config"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/adb"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config file (optional)")
		outDir     = flag.String("out", "", "Output directory (overrides output.dir)")
	)
	flag.Parse()

	cfg, err := runner.LoadConfig(*configPath, config.DefaultADB())
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	res, err := runner.Run(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("pipeline failed", "error", err)
	}

	written, err := adb.Write(cfg.Output.Dir, cfg.Output.ADB, res.Graph)
	if err != nil {
		lg.Fatal("write bulk-load files", "error", err)
	}
	for _, path := range written {
		lg.Info("wrote", "path", path)
	}

	if err := runner.SaveSQLite(ctx, cfg, res); err != nil {
		lg.Fatal("sqlite export failed", "error", err)
	}
}
