// Package postgres opens and migrates the PostgreSQL storage of the service.
//
// Orders are persisted through GORM (see orderrepo) and the audit trail
// through database/sql with lib/pq (see auditrepo). Both share one database
// but keep separate connection pools.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"fulfillment/internal/adapters/out/postgres/auditrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"

	_ "github.com/lib/pq"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectionParams identifies the database.
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the params as a postgres:// URL accepted by both drivers.
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + port,
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Databases holds the two handles used by the repositories.
type Databases struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects both handles and pings the database.
func Open(ctx context.Context, dsn string) (*Databases, error) {
	gormDB, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open lib/pq: %w", err), closeGorm(gormDB))
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping postgres: %w", err), sqlDB.Close(), closeGorm(gormDB))
	}

	return &Databases{Gorm: gormDB, SQL: sqlDB}, nil
}

// Migrate creates or updates every table the service needs.
func (d *Databases) Migrate(ctx context.Context) error {
	if err := d.Gorm.WithContext(ctx).AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.ItemDTO{}); err != nil {
		return fmt.Errorf("migrate orders: %w", err)
	}
	return auditrepo.Migrate(ctx, d.SQL)
}

// Close releases both pools.
func (d *Databases) Close() error {
	return errors.Join(d.SQL.Close(), closeGorm(d.Gorm))
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
