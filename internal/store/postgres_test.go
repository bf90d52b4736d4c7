package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

var firmColumns = []string{
	"cib", "name", "trade_name", "category", "legal_form", "siren", "lei",
	"auth_type", "status", "address", "postcode", "city", "country",
	"last_update", "regime",
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestCopyRows_Empty(t *testing.T) {
	n, err := copyRows(context.Background(), nil, "authorized_activities", []string{"cib", "activity"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPostgresGetFirmNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM firms WHERE cib`).
		WithArgs(99999).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetFirm(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetFirm(t *testing.T) {
	s, mock := newMockStore(t)

	lastUpdate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM firms WHERE cib`).
		WithArgs(30004).
		WillReturnRows(pgxmock.NewRows(firmColumns).AddRow(
			30004, "BNP PARIBAS", "", "Banque - Prestataire de services d'investissement",
			"Société anonyme", "662042449", "", "Agrément", "En activité",
			"", "", "Paris", "France", &lastUpdate, "domestic",
		))
	mock.ExpectQuery(`SELECT activity FROM authorized_activities`).
		WithArgs(30004).
		WillReturnRows(pgxmock.NewRows([]string{"activity"}).AddRow(2).AddRow(3))
	mock.ExpectQuery(`SELECT instrument, service FROM provided_services`).
		WithArgs(30004).
		WillReturnRows(pgxmock.NewRows([]string{"instrument", "service"}).AddRow(1, 1).AddRow(2, 6))

	firm, err := s.GetFirm(context.Background(), 30004)
	require.NoError(t, err)
	assert.Equal(t, "BNP PARIBAS", firm.Name)
	assert.Equal(t, model.RegimeDomestic, firm.Regime)
	require.NotNil(t, firm.LastUpdate)
	assert.Equal(t, lastUpdate, *firm.LastUpdate)
	assert.Equal(t, []model.ActivityCode{2, 3}, firm.Activities)
	assert.Equal(t, []model.ServiceKey{
		{Instrument: 1, Service: 1},
		{Instrument: 2, Service: 6},
	}, firm.Services.Sorted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveFirm(t *testing.T) {
	s, mock := newMockStore(t)

	services := model.NewServiceSet()
	services.Add(model.ServiceKey{Instrument: 1, Service: 2})
	firm := &model.Firm{
		CIB:        30004,
		Name:       "BNP PARIBAS",
		Category:   "Banque - Prestataire de services d'investissement",
		Regime:     model.RegimeDomestic,
		Activities: []model.ActivityCode{3},
		Services:   services,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO firms`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM authorized_activities`).
		WithArgs(30004).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM provided_services`).
		WithArgs(30004).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"authorized_activities"}, []string{"cib", "activity"}).
		WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"provided_services"}, []string{"cib", "instrument", "service"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	require.NoError(t, s.SaveFirm(context.Background(), firm))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveFirmRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO firms`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	firm := &model.Firm{CIB: 1, Category: "Banque", Regime: model.RegimeDomestic}
	err := s.SaveFirm(context.Background(), firm)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListFirmsEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM firms ORDER BY cib`).
		WillReturnRows(pgxmock.NewRows(firmColumns))

	firms, err := s.ListFirms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, firms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordRun(t *testing.T) {
	s, mock := newMockStore(t)

	started := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	run := model.Run{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Processed:  10,
		Skipped:    1,
		Failed:     0,
	}

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(run.ID, run.StartedAt, run.FinishedAt, 10, 1, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.RecordRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}
