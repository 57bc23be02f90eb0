package main

import (
	"context"
	"flag"
	"log"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/internal/runner"
	"github.com/cognicore/dishgraph/pkg/dishgraph/config"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/docjson"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config file (optional)")
		outPath    = flag.String("out", "", "Output file (overrides output.documents)")
	)
	flag.Parse()

	cfg, err := runner.LoadConfig(*configPath, config.DefaultNested())
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer lg.Sync()

	res, err := runner.Run(context.Background(), cfg, lg)
	if err != nil {
		lg.Fatal("pipeline failed", "error", err)
	}

	path := *outPath
	if path == "" {
		path = cfg.OutputPath(cfg.Output.Documents)
	}
	if err := docjson.Write(path, res.Documents); err != nil {
		lg.Fatal("write documents", "error", err)
	}
	lg.Info("wrote", "path", path, "documents", len(res.Documents))
}
