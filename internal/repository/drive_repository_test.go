package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placementhub/placement-api/internal/models"
)

func newDriveMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDriveRepositoryIncrementRegistered(t *testing.T) {
	db, mock, cleanup := newDriveMock(t)
	defer cleanup()
	repo := NewDriveRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE drive_positions SET registered = registered + 1 WHERE id = $1 AND registered < positions_available")).
		WithArgs("pos-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.IncrementRegistered(context.Background(), "pos-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriveRepositoryIncrementRegisteredFull(t *testing.T) {
	db, mock, cleanup := newDriveMock(t)
	defer cleanup()
	repo := NewDriveRepository(db)

	// Guard clause matches zero rows once the position is full.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE drive_positions SET registered = registered + 1 WHERE id = $1 AND registered < positions_available")).
		WithArgs("pos-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.IncrementRegistered(context.Background(), "pos-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriveRepositoryCreateTransactional(t *testing.T) {
	db, mock, cleanup := newDriveMock(t)
	defer cleanup()
	repo := NewDriveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO company_drives").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO drive_positions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	drive := &models.CompanyDrive{
		CompanyName:      "Acme Corp",
		Description:      "Campus hiring",
		Mode:             models.DriveModeOnCampus,
		DriveDate:        time.Now().Add(48 * time.Hour),
		RegistrationOpen: time.Now(),
		RegistrationEnd:  time.Now().Add(24 * time.Hour),
		CreatedBy:        "officer-1",
		Positions: []models.DrivePosition{
			{Title: "SDE", PackageLPA: 12, PositionsAvailable: 5},
		},
	}
	err := repo.Create(context.Background(), drive)
	require.NoError(t, err)
	assert.NotEmpty(t, drive.ID)
	assert.Equal(t, drive.ID, drive.Positions[0].DriveID)
	assert.Equal(t, models.DriveStatusUpcoming, drive.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriveRepositoryList(t *testing.T) {
	db, mock, cleanup := newDriveMock(t)
	defer cleanup()
	repo := NewDriveRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "company_name", "company_logo_url", "description", "status", "mode", "venue", "drive_date", "registration_open", "registration_end", "eligibility_rule_id", "rounds", "contact_email", "created_by", "created_at", "updated_at"}).
		AddRow("d1", "Acme Corp", "", "Campus hiring", "upcoming", "on-campus", "Main hall", now, now, now, nil, "{}", "", "officer-1", now, now)
	mock.ExpectQuery("SELECT id, company_name, .+ FROM company_drives WHERE 1=1 AND status = \\$1").
		WithArgs(models.DriveStatusUpcoming).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM company_drives WHERE 1=1 AND status = \\$1").
		WithArgs(models.DriveStatusUpcoming).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	drives, total, err := repo.List(context.Background(), models.DriveFilter{Status: models.DriveStatusUpcoming})
	require.NoError(t, err)
	assert.Len(t, drives, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
