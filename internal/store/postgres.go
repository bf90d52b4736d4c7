package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/taxonomy"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	id       BIGSERIAL PRIMARY KEY,
	cib      INTEGER NOT NULL REFERENCES firms(cib) ON DELETE CASCADE,
	activity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS provided_services (
	id         BIGSERIAL PRIMARY KEY,
	cib        INTEGER NOT NULL REFERENCES firms(cib) ON DELETE CASCADE,
	instrument INTEGER NOT NULL,
	service    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	processed   INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS acpr_activities  (activity INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS acpr_services    (service INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS acpr_instruments (instrument INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS cb_services     (service INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS cb_instruments  (instrument INTEGER PRIMARY KEY, name TEXT NOT NULL);

CREATE INDEX IF NOT EXISTS idx_activities_cib ON authorized_activities(cib);
CREATE INDEX IF NOT EXISTS idx_services_cib ON provided_services(cib);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}

	seed := func(table, codeCol string, rows map[int]string) error {
		for code, name := range rows {
			_, err := s.pool.Exec(ctx,
				`INSERT INTO `+table+` (`+codeCol+`, name) VALUES ($1, $2)
				 ON CONFLICT (`+codeCol+`) DO UPDATE SET name = EXCLUDED.name`,
				code, name,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: seed %s", table)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveFirm(ctx context.Context, firm *model.Firm) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	var lastUpdate any
	if firm.LastUpdate != nil {
		lastUpdate = *firm.LastUpdate
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO firms
		 (cib, name, trade_name, category, legal_form, siren, lei, auth_type,
		  status, address, postcode, city, country, last_update, regime)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (cib) DO UPDATE SET
		   name = EXCLUDED.name, trade_name = EXCLUDED.trade_name,
		   category = EXCLUDED.category, legal_form = EXCLUDED.legal_form,
		   siren = EXCLUDED.siren, lei = EXCLUDED.lei,
		   auth_type = EXCLUDED.auth_type, status = EXCLUDED.status,
		   address = EXCLUDED.address, postcode = EXCLUDED.postcode,
		   city = EXCLUDED.city, country = EXCLUDED.country,
		   last_update = EXCLUDED.last_update, regime = EXCLUDED.regime`,
		firm.CIB, firm.Name, firm.TradeName, firm.Category, firm.LegalForm,
		firm.SIREN, firm.LEI, firm.AuthorizationType, firm.Status,
		firm.Address, firm.Postcode, firm.City, firm.Country, lastUpdate,
		string(firm.Regime),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert firm %d", firm.CIB)
	}

	for _, table := range []string{"authorized_activities", "provided_services"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE cib = $1`, firm.CIB); err != nil {
			return eris.Wrapf(err, "postgres: clear %s for firm %d", table, firm.CIB)
		}
	}

	activityRows := make([][]any, 0, len(firm.Activities))
	for _, activity := range firm.Activities {
		activityRows = append(activityRows, []any{firm.CIB, int(activity)})
	}
	if _, err := copyRows(ctx, tx, "authorized_activities", []string{"cib", "activity"}, activityRows); err != nil {
		return eris.Wrapf(err, "postgres: activities for firm %d", firm.CIB)
	}

	serviceRows := make([][]any, 0, len(firm.Services))
	for _, key := range firm.Services.Sorted() {
		serviceRows = append(serviceRows, []any{firm.CIB, key.Instrument, key.Service})
	}
	if _, err := copyRows(ctx, tx, "provided_services", []string{"cib", "instrument", "service"}, serviceRows); err != nil {
		return eris.Wrapf(err, "postgres: services for firm %d", firm.CIB)
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit firm %d", firm.CIB)
}

func (s *PostgresStore) GetFirm(ctx context.Context, cib int) (*model.Firm, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT cib, name, trade_name, category, legal_form, siren, lei,
		        auth_type, status, address, postcode, city, country,
		        last_update, regime
		 FROM firms WHERE cib = $1`, cib)

	firm, err := scanPgFirm(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAuthorizations(ctx, firm); err != nil {
		return nil, err
	}
	return firm, nil
}

func (s *PostgresStore) ListFirms(ctx context.Context) ([]*model.Firm, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cib, name, trade_name, category, legal_form, siren, lei,
		        auth_type, status, address, postcode, city, country,
		        last_update, regime
		 FROM firms ORDER BY cib`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list firms")
	}
	defer rows.Close()

	var firms []*model.Firm
	for rows.Next() {
		firm, err := scanPgFirm(rows)
		if err != nil {
			return nil, err
		}
		firms = append(firms, firm)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list firms iterate")
	}

	for _, firm := range firms {
		if err := s.loadAuthorizations(ctx, firm); err != nil {
			return nil, err
		}
	}
	return firms, nil
}

func (s *PostgresStore) loadAuthorizations(ctx context.Context, firm *model.Firm) error {
	rows, err := s.pool.Query(ctx,
		`SELECT activity FROM authorized_activities WHERE cib = $1 ORDER BY activity`, firm.CIB)
	if err != nil {
		return eris.Wrapf(err, "postgres: activities for firm %d", firm.CIB)
	}
	defer rows.Close()
	for rows.Next() {
		var activity int
		if err := rows.Scan(&activity); err != nil {
			return eris.Wrap(err, "postgres: scan activity")
		}
		firm.Activities = append(firm.Activities, model.ActivityCode(activity))
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: activities iterate")
	}

	serviceRows, err := s.pool.Query(ctx,
		`SELECT instrument, service FROM provided_services WHERE cib = $1
		 ORDER BY instrument, service`, firm.CIB)
	if err != nil {
		return eris.Wrapf(err, "postgres: services for firm %d", firm.CIB)
	}
	defer serviceRows.Close()
	firm.Services = model.NewServiceSet()
	for serviceRows.Next() {
		var key model.ServiceKey
		if err := serviceRows.Scan(&key.Instrument, &key.Service); err != nil {
			return eris.Wrap(err, "postgres: scan service")
		}
		firm.Services.Add(key)
	}
	return eris.Wrap(serviceRows.Err(), "postgres: services iterate")
}

func (s *PostgresStore) RecordRun(ctx context.Context, run model.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, started_at, finished_at, processed, skipped, failed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Processed, run.Skipped, run.Failed,
	)
	return eris.Wrap(err, "postgres: record run")
}

func scanPgFirm(row pgx.Row) (*model.Firm, error) {
	var firm model.Firm
	var lastUpdate *time.Time
	var regime string

	err := row.Scan(&firm.CIB, &firm.Name, &firm.TradeName, &firm.Category,
		&firm.LegalForm, &firm.SIREN, &firm.LEI, &firm.AuthorizationType,
		&firm.Status, &firm.Address, &firm.Postcode, &firm.City,
		&firm.Country, &lastUpdate, &regime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan firm")
	}

	firm.LastUpdate = lastUpdate
	firm.Regime = model.Regime(regime)
	return &firm, nil
}
