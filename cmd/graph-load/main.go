package main

import (
	"context"
	"flag"
	"log"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/internal/runner"
	"github.com/cognicore/dishgraph/pkg/dishgraph/config"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/graphdb"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config file (optional)")
		uri        = flag.String("uri", "", "Bolt URI (overrides neo4j.uri)")
	)
	flag.Parse()

	cfg, err := runner.LoadConfig(*configPath, config.DefaultNested())
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *uri != "" {
		cfg.Neo4j.URI = *uri
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

	client, err := graphdb.NewClient(ctx, cfg.Neo4j, lg)
	if err != nil {
		lg.Fatal("connect to graph database", "error", err)
	}
	defer client.Close(ctx)

	summary, err := client.Load(ctx, res.Graph)
	if err != nil {
		lg.Fatal("graph load failed", "error", err)
	}
	lg.Info("done", "run", res.RunID, "constraints", summary.Constraints, "statements", summary.Statements)
}
