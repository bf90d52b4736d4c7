package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/taxonomy"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS firms (
	cib         INTEGER PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	trade_name  TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	legal_form  TEXT NOT NULL DEFAULT '',
	siren       TEXT NOT NULL DEFAULT '',
	lei         TEXT NOT NULL DEFAULT '',
	auth_type   TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL DEFAULT '',
	postcode    TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	last_update DATE,
	regime      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS authorized_activities (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	cib      INTEGER NOT NULL REFERENCES firms(cib) ON DELETE CASCADE,
	activity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS provided_services (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	cib        INTEGER NOT NULL REFERENCES firms(cib) ON DELETE CASCADE,
	instrument INTEGER NOT NULL,
	service    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	processed   INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS acpr_activities  (activity INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS acpr_services    (service INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS acpr_instruments (instrument INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS cb_services      (service INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS cb_instruments   (instrument INTEGER PRIMARY KEY, name TEXT NOT NULL);

CREATE INDEX IF NOT EXISTS idx_activities_cib ON authorized_activities(cib);
CREATE INDEX IF NOT EXISTS idx_services_cib ON provided_services(cib);
`

// Migrate creates the schema and seeds the legend tables so the database is
// queryable on its own, codes joined to their registry labels.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	seed := func(table, codeCol string, rows map[int]string) error {
		for code, name := range rows {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO `+table+` (`+codeCol+`, name) VALUES (?, ?)
				 ON CONFLICT (`+codeCol+`) DO UPDATE SET name = excluded.name`,
				code, name,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: seed %s", table)
			}
		}
		return nil
	}

	activities := make(map[int]string, len(taxonomy.ACPRActivities))
	for code, name := range taxonomy.ACPRActivities {
		activities[int(code)] = name
	}
	if err := seed("acpr_activities", "activity", activities); err != nil {
		return err
	}
	if err := seed("acpr_services", "service", taxonomy.ACPRServices); err != nil {
		return err
	}
	if err := seed("acpr_instruments", "instrument", taxonomy.ACPRInstruments); err != nil {
		return err
	}
	if err := seed("cb_services", "service", taxonomy.CBServices); err != nil {
		return err
	}
	return seed("cb_instruments", "instrument", taxonomy.CBInstruments)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveFirm replaces the firm row and rewrites its activity and service rows
// in one transaction.
func (s *SQLiteStore) SaveFirm(ctx context.Context, firm *model.Firm) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	var lastUpdate any
	if firm.LastUpdate != nil {
		lastUpdate = firm.LastUpdate.Format(time.DateOnly)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO firms
		 (cib, name, trade_name, category, legal_form, siren, lei, auth_type,
		  status, address, postcode, city, country, last_update, regime)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		firm.CIB, firm.Name, firm.TradeName, firm.Category, firm.LegalForm,
		firm.SIREN, firm.LEI, firm.AuthorizationType, firm.Status,
		firm.Address, firm.Postcode, firm.City, firm.Country, lastUpdate,
		string(firm.Regime),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert firm %d", firm.CIB)
	}

	// INSERT OR REPLACE deletes the old row first, cascading to the
	// authorization rows, but clear explicitly so replacement does not depend
	// on the foreign-key pragma.
	for _, table := range []string{"authorized_activities", "provided_services"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE cib = ?`, firm.CIB); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s for firm %d", table, firm.CIB)
		}
	}

	for _, activity := range firm.Activities {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO authorized_activities (cib, activity) VALUES (?, ?)`,
			firm.CIB, int(activity),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert activity for firm %d", firm.CIB)
		}
	}
	for _, key := range firm.Services.Sorted() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO provided_services (cib, instrument, service) VALUES (?, ?, ?)`,
			firm.CIB, key.Instrument, key.Service,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert service for firm %d", firm.CIB)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit firm %d", firm.CIB)
}

func (s *SQLiteStore) GetFirm(ctx context.Context, cib int) (*model.Firm, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cib, name, trade_name, category, legal_form, siren, lei,
		        auth_type, status, address, postcode, city, country,
		        last_update, regime
		 FROM firms WHERE cib = ?`, cib)

	firm, err := scanFirm(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAuthorizations(ctx, firm); err != nil {
		return nil, err
	}
	return firm, nil
}

// ListFirms returns every firm with its authorizations, ordered by CIB.
func (s *SQLiteStore) ListFirms(ctx context.Context) ([]*model.Firm, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cib, name, trade_name, category, legal_form, siren, lei,
		        auth_type, status, address, postcode, city, country,
		        last_update, regime
		 FROM firms ORDER BY cib`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list firms")
	}
	defer rows.Close()

	var firms []*model.Firm
	for rows.Next() {
		firm, err := scanFirm(rows)
		if err != nil {
			return nil, err
		}
		firms = append(firms, firm)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list firms iterate")
	}

	for _, firm := range firms {
		if err := s.loadAuthorizations(ctx, firm); err != nil {
			return nil, err
		}
	}
	return firms, nil
}

func (s *SQLiteStore) loadAuthorizations(ctx context.Context, firm *model.Firm) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT activity FROM authorized_activities WHERE cib = ? ORDER BY activity`, firm.CIB)
	if err != nil {
		return eris.Wrapf(err, "sqlite: activities for firm %d", firm.CIB)
	}
	defer rows.Close()
	for rows.Next() {
		var activity int
		if err := rows.Scan(&activity); err != nil {
			return eris.Wrap(err, "sqlite: scan activity")
		}
		firm.Activities = append(firm.Activities, model.ActivityCode(activity))
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: activities iterate")
	}

	serviceRows, err := s.db.QueryContext(ctx,
		`SELECT instrument, service FROM provided_services WHERE cib = ?
		 ORDER BY instrument, service`, firm.CIB)
	if err != nil {
		return eris.Wrapf(err, "sqlite: services for firm %d", firm.CIB)
	}
	defer serviceRows.Close()
	firm.Services = model.NewServiceSet()
	for serviceRows.Next() {
		var key model.ServiceKey
		if err := serviceRows.Scan(&key.Instrument, &key.Service); err != nil {
			return eris.Wrap(err, "sqlite: scan service")
		}
		firm.Services.Add(key)
	}
	return eris.Wrap(serviceRows.Err(), "sqlite: services iterate")
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, processed, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Processed, run.Skipped, run.Failed,
	)
	return eris.Wrap(err, "sqlite: record run")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFirm(row scannable) (*model.Firm, error) {
	var firm model.Firm
	var lastUpdate sql.NullString
	var regime string

	err := row.Scan(&firm.CIB, &firm.Name, &firm.TradeName, &firm.Category,
		&firm.LegalForm, &firm.SIREN, &firm.LEI, &firm.AuthorizationType,
		&firm.Status, &firm.Address, &firm.Postcode, &firm.City,
		&firm.Country, &lastUpdate, &regime)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan firm")
	}

	if lastUpdate.Valid {
		if ts, err := time.Parse(time.DateOnly, lastUpdate.String); err == nil {
			firm.LastUpdate = &ts
		}
	}
	firm.Regime = model.Regime(regime)
	return &firm, nil
}
