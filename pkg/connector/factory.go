// pkg/connector/factory.go
package connector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/config"
)

// ErrNoSink is returned when no relational sink is configured
var ErrNoSink = errors.New("no sink driver configured")

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}
	return connector, nil
}

// CreateSQLiteConnector creates a new SQLite connector
func (f *ConnectorFactory) CreateSQLiteConnector(ctx context.Context) (*SQLiteConnector, error) {
	f.logger.Info("Creating SQLite connector")

	connector, err := NewSQLiteConnector(ctx, f.cfg.SQLite, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connector: %w", err)
	}
	return connector, nil
}

// CreateSinkConnector creates the connector for the configured sink driver
func (f *ConnectorFactory) CreateSinkConnector(ctx context.Context) (DatabaseConnector, error) {
	switch f.cfg.SinkDriver {
	case config.DriverPostgres:
		conn, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case config.DriverSQLite:
		conn, err := f.CreateSQLiteConnector(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case config.DriverNone:
		return nil, ErrNoSink
	default:
		return nil, fmt.Errorf("unsupported sink driver %q", f.cfg.SinkDriver)
	}
}
