// Package store persists insider events and per-company scan progress in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	insider "github.com/RxDataLab/go-insider"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements insider.EventSink and insider.ScanState
type Store struct {
	db *sql.DB
}

var (
	_ insider.EventSink = (*Store)(nil)
	_ insider.ScanState = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies migrations
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// One connection avoids SQLITE_BUSY between our own writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

const upsertEvent = `
INSERT INTO insider_events (
    id, ticker, cik, filing_date, transaction_date, insider_name,
    shares_bought, price, price_per_share, cash_spent, percent_increase,
    shares_owned_before, shares_owned_following, ownership_form,
    is_10b51_plan, plan_10b51_adoption_date, source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    ticker = excluded.ticker,
    insider_name = excluded.insider_name,
    price = excluded.price,
    price_per_share = excluded.price_per_share,
    cash_spent = excluded.cash_spent,
    percent_increase = excluded.percent_increase,
    is_10b51_plan = excluded.is_10b51_plan,
    plan_10b51_adoption_date = excluded.plan_10b51_adoption_date`

// SaveEvents upserts events by id in one transaction
func (s *Store) SaveEvents(ctx context.Context, events []insider.InsiderEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertEvent)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			e.ID, e.Ticker, e.CIK, e.FilingDate, e.TransactionDate, e.InsiderName,
			e.SharesBought, e.Price, e.PricePerShare, e.CashSpent, e.PercentIncrease,
			e.SharesOwnedBefore, e.SharesOwnedFollowing, string(e.OwnershipForm),
			e.Is10b51Plan, e.Plan10b51AdoptionDate, e.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to save event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// EventsByCIK returns the stored events of a company, oldest first
func (s *Store) EventsByCIK(ctx context.Context, cik string) ([]insider.InsiderEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ticker, cik, filing_date, transaction_date, insider_name,
       shares_bought, price, price_per_share, cash_spent, percent_increase,
       shares_owned_before, shares_owned_following, ownership_form,
       is_10b51_plan, plan_10b51_adoption_date, source
FROM insider_events
WHERE cik = ?
ORDER BY filing_date, transaction_date, id`, insider.PadCIK(cik))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []insider.InsiderEvent{}
	for rows.Next() {
		var (
			e        insider.InsiderEvent
			name     sql.NullString
			price    sql.NullFloat64
			form     string
			adoption sql.NullString
		)
		err := rows.Scan(
			&e.ID, &e.Ticker, &e.CIK, &e.FilingDate, &e.TransactionDate, &name,
			&e.SharesBought, &e.Price, &price, &e.CashSpent, &e.PercentIncrease,
			&e.SharesOwnedBefore, &e.SharesOwnedFollowing, &form,
			&e.Is10b51Plan, &adoption, &e.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.OwnershipForm = insider.OwnershipForm(form)
		if name.Valid {
			e.InsiderName = &name.String
		}
		if price.Valid {
			e.PricePerShare = &price.Float64
		}
		if adoption.Valid {
			e.Plan10b51AdoptionDate = &adoption.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LastScanned returns the latest filing date scanned for a company, "" if never
func (s *Store) LastScanned(ctx context.Context, cik string) (string, error) {
	var date string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_filing_date FROM scan_state WHERE cik = ?`, insider.PadCIK(cik)).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read scan state: %w", err)
	}
	return date, nil
}

// MarkScanned records a scanned filing date. The stored date never moves backwards.
func (s *Store) MarkScanned(ctx context.Context, cik, filingDate string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scan_state (cik, last_filing_date) VALUES (?, ?)
ON CONFLICT(cik) DO UPDATE SET
    last_filing_date = MAX(scan_state.last_filing_date, excluded.last_filing_date),
    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		insider.PadCIK(cik), filingDate)
	if err != nil {
		return fmt.Errorf("failed to save scan state: %w", err)
	}
	return nil
}
