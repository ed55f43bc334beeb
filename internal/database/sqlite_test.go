package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "easyapply.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleOpportunity(link string) *models.Opportunity {
	opp := models.NewOpportunity(models.SiteIndeed)
	opp.Link = link
	opp.Position = "Go Engineer"
	opp.Company = "Acme"
	opp.Location = "Remote"
	opp.EasyApply = true
	opp.Status = models.StatusAccepted
	return opp
}

func TestSQLite_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	table := openTestStore(t).ForSite(models.SiteIndeed)
	link := "https://www.indeed.com/viewjob?jk=abc&tk=def"

	first, err := table.Add(ctx, sampleOpportunity(link))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second := sampleOpportunity(link)
	second.Position = "Renamed"
	got, err := table.Add(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Go Engineer", got.Position, "second add must not overwrite")

	all, err := table.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_Exists(t *testing.T) {
	ctx := context.Background()
	table := openTestStore(t).ForSite(models.SiteIndeed)

	ok, err := table.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = table.Add(ctx, sampleOpportunity("present"))
	require.NoError(t, err)

	ok, err = table.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_SitesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.ForSite(models.SiteIndeed).Add(ctx, sampleOpportunity("shared-link"))
	require.NoError(t, err)

	ok, err := s.ForSite(models.SiteMonster).Exists(ctx, "shared-link")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_UpdateKeepsApplied(t *testing.T) {
	ctx := context.Background()
	table := openTestStore(t).ForSite(models.SiteIndeed)

	opp, err := table.Add(ctx, sampleOpportunity("link"))
	require.NoError(t, err)

	opp.Applied = true
	updated, err := table.Update(ctx, opp)
	require.NoError(t, err)
	assert.True(t, updated)

	opp.Applied = false
	opp.Salary = "$100k"
	_, err = table.Update(ctx, opp)
	require.NoError(t, err)

	got, err := table.Get(ctx, "link")
	require.NoError(t, err)
	assert.True(t, got.Applied, "applied must be sticky")
	assert.Equal(t, "$100k", got.Salary)
	assert.Equal(t, models.SiteIndeed, got.Site)
	assert.Equal(t, models.StatusAccepted, got.Status)
}

func TestSQLite_UpdateMissingRow(t *testing.T) {
	table := openTestStore(t).ForSite(models.SiteMonster)
	ok, err := table.Update(context.Background(), sampleOpportunity("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_GetNotFound(t *testing.T) {
	table := openTestStore(t).ForSite(models.SiteIndeed)
	_, err := table.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), config.Database{
		Type: config.DatabaseSQLite,
		Path: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), config.Database{Type: "mongo"})
	assert.Error(t, err)
}

func TestSQLite_StoreErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	diskErr := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT 1 FROM indeed_opportunities WHERE link = \?`).
		WithArgs("link").
		WillReturnError(diskErr)
	mock.ExpectExec(`INSERT INTO indeed_opportunities`).
		WillReturnError(diskErr)

	table := NewSQLiteStore(db).ForSite(models.SiteIndeed)

	_, err = table.Exists(context.Background(), "link")
	assert.ErrorIs(t, err, diskErr)

	_, err = table.Add(context.Background(), sampleOpportunity("link"))
	assert.ErrorIs(t, err, diskErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_ListScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "link", "position", "company", "location", "salary", "description",
		"easy_apply", "applied", "status", "created", "updated",
	}).
		AddRow(1, "a", "Go Engineer", "Acme", "Remote", "", "", true, false, "ACCEPTED", int64(1700000000000), int64(1700000000000)).
		AddRow(2, "b", "Staff Engineer", "Acme Staffing", "NYC", "", "", false, false, "REJECTED", int64(1700000000000), int64(1700000001000))
	mock.ExpectQuery(`SELECT (.+) FROM monster_opportunities ORDER BY id`).WillReturnRows(rows)

	list, err := NewSQLiteStore(db).ForSite(models.SiteMonster).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.SiteMonster, list[0].Site)
	assert.True(t, list[0].EasyApply)
	assert.Equal(t, models.StatusRejected, list[1].Status)
	assert.Equal(t, int64(1700000001000), list[1].Updated.UnixMilli())
	assert.NoError(t, mock.ExpectationsWereMet())
}
