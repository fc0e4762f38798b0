// Package storage persists the enriched price table in SQLite so the report
// and web commands can run without re-processing raw files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"agropulse/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS enriched_records (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	product          TEXT NOT NULL,
	product_clean    TEXT NOT NULL,
	market           TEXT,
	market_clean     TEXT,
	date             TEXT,
	price            REAL,
	quantity         INTEGER,
	unit             TEXT,
	unit_price       REAL,
	origin           TEXT,
	quality          TEXT,
	month            INTEGER NOT NULL,
	year             INTEGER NOT NULL,
	quarter          INTEGER NOT NULL,
	day_of_week      INTEGER NOT NULL,
	season           TEXT,
	product_category TEXT,
	price_category   TEXT,
	description      TEXT,
	source_url       TEXT
);
CREATE INDEX IF NOT EXISTS idx_enriched_product ON enriched_records(product_clean);
CREATE INDEX IF NOT EXISTS idx_enriched_market ON enriched_records(market_clean);
CREATE INDEX IF NOT EXISTS idx_enriched_date ON enriched_records(date);
`

const dateColumnLayout = "2006-01-02"

// Store wraps the SQLite database holding enriched records.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceRecords atomically swaps the stored table for the given batch.
func (s *Store) ReplaceRecords(ctx context.Context, records []domain.EnrichedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM enriched_records`); err != nil {
		return fmt.Errorf("failed to clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO enriched_records (
			product, product_clean, market, market_clean, date,
			price, quantity, unit, unit_price, origin, quality,
			month, year, quarter, day_of_week, season,
			product_category, price_category, description, source_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Product, r.ProductClean, r.Market, r.MarketClean, nullDate(r.Date),
			nullFloat(r.Price), nullInt(r.Quantity), r.Unit, nullFloat(r.UnitPrice), r.Origin, r.Quality,
			r.Month, r.Year, r.Quarter, r.DayOfWeek, string(r.Season),
			r.ProductCategory, r.PriceCategory, r.Description, r.SourceURL,
		); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.InfoContext(ctx, "records stored", "count", len(records))
	return nil
}

// LoadAll returns every stored record ordered by date then product.
func (s *Store) LoadAll(ctx context.Context) ([]domain.EnrichedRecord, error) {
	return s.query(ctx, selectColumns+` ORDER BY date, product_clean`)
}

// LoadByProduct returns the stored records for one cleaned product name,
// date-ascending.
func (s *Store) LoadByProduct(ctx context.Context, productClean string) ([]domain.EnrichedRecord, error) {
	return s.query(ctx, selectColumns+` WHERE product_clean = ? ORDER BY date`, productClean)
}

const selectColumns = `
	SELECT product, product_clean, market, market_clean, date,
	       price, quantity, unit, unit_price, origin, quality,
	       month, year, quarter, day_of_week, season,
	       product_category, price_category, description, source_url
	FROM enriched_records`

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.EnrichedRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []domain.EnrichedRecord
	for rows.Next() {
		var (
			rec       domain.EnrichedRecord
			date      sql.NullString
			price     sql.NullFloat64
			quantity  sql.NullInt64
			unitPrice sql.NullFloat64
			season    string
		)
		if err := rows.Scan(
			&rec.Product, &rec.ProductClean, &rec.Market, &rec.MarketClean, &date,
			&price, &quantity, &rec.Unit, &unitPrice, &rec.Origin, &rec.Quality,
			&rec.Month, &rec.Year, &rec.Quarter, &rec.DayOfWeek, &season,
			&rec.ProductCategory, &rec.PriceCategory, &rec.Description, &rec.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if date.Valid && date.String != "" {
			if d, err := time.Parse(dateColumnLayout, date.String); err == nil {
				rec.Date = &d
			}
		}
		if price.Valid {
			v := price.Float64
			rec.Price = &v
		}
		if quantity.Valid {
			v := int(quantity.Int64)
			rec.Quantity = &v
		}
		if unitPrice.Valid {
			v := unitPrice.Float64
			rec.UnitPrice = &v
		}
		rec.Season = domain.Season(season)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateColumnLayout)
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
