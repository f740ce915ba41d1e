package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/storage"
)

type ClickHouseStore struct {
	conn driver.Conn
}

var _ storage.LaunchStore = (*ClickHouseStore)(nil)

func NewClickHouseStore(addr, database, username, password string) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Println("✅ Connected to ClickHouse")

	return &ClickHouseStore{
		conn: conn,
	}, nil
}

// Init creates the tables the pipeline writes to.
func (c *ClickHouseStore) Init(ctx context.Context) error {
	ddl := []string{
		`
		CREATE TABLE IF NOT EXISTS launch_events (
			mint String,
			name String,
			symbol String,
			liquidity_sol Float64,
			deployer String,
			ts DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (ts, mint)
		`,
		`
		CREATE TABLE IF NOT EXISTS signals (
			mint String,
			liquidity_score Float64,
			volume_score Float64,
			momentum_score Float64,
			risk_score Float64,
			composite Float64,
			recommendation String,
			confidence Float64,
			ts DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (ts, mint)
		`,
	}

	for _, query := range ddl {
		if err := c.conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (c *ClickHouseStore) InsertLaunch(ctx context.Context, launch *models.LaunchEvent) error {
	query := `
		INSERT INTO launch_events (
			mint, name, symbol, liquidity_sol, deployer, ts
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		launch.Mint,
		launch.Name,
		launch.Symbol,
		launch.LiquiditySol,
		launch.Deployer,
		launch.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert launch: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) InsertSignal(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO signals (
			mint, liquidity_score, volume_score, momentum_score, risk_score,
			composite, recommendation, confidence, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, now64(3))
	`

	err := c.conn.Exec(ctx, query,
		analysis.Mint,
		analysis.LiquidityScore,
		analysis.VolumeScore,
		analysis.MomentumScore,
		analysis.RiskScore,
		analysis.Composite,
		string(analysis.Recommendation),
		analysis.Confidence,
	)

	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
