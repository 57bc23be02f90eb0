// Package graphdb loads the graph projection into Neo4j or Memgraph over
// Bolt, merging on each record's constraint field.
package graphdb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
)

// Config holds graph database connection settings.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// BatchSize is the number of rows per UNWIND statement.
	BatchSize int `yaml:"batch_size"`
	// Timeout bounds connecting and verifying connectivity.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultBatchSize is used when Config.BatchSize is unset.
const DefaultBatchSize = 500

// PasswordFromEnv fills an empty password from NEO4J_PASSWORD.
func (c *Config) PasswordFromEnv() {
	if c.Password == "" {
		c.Password = os.Getenv("NEO4J_PASSWORD")
	}
}

// Client wraps the Neo4j driver.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	batch    int
	log      *logger.Logger
}

// NewClient connects and verifies connectivity.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("graphdb: uri required: %w", internalerr.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("graphdb: init driver: %w: %w", internalerr.ErrStoreUnavailable, err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphdb: verify connectivity: %w: %w", internalerr.ErrStoreUnavailable, err)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	return &Client{
		driver:   driver,
		database: cfg.Database,
		batch:    batch,
		log:      log.With("client", "graphdb"),
	}, nil
}

// Close closes the driver.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

// run executes one statement in its own write transaction.
func (c *Client) run(ctx context.Context, st Statement) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, st.Cypher, st.Params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}
