package backend

import (
	"context"
	"errors"
	"testing"

	"roster-sync/core/database"
	"roster-sync/feature/players/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func intp(i int) *int { return &i }

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestStore_CRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ann, err := store.Create(ctx, models.NewPlayer{Name: "Ann", Age: intp(30)})
	require.NoError(t, err)
	assert.NotZero(t, ann.ID)

	bob, err := store.Create(ctx, models.NewPlayer{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Greater(t, bob.ID, ann.ID)

	players, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Player{ann, bob}, players)

	updated, err := store.Update(ctx, ann.ID, models.NewPlayer{Name: "Anna", Age: intp(31)})
	require.NoError(t, err)
	assert.Equal(t, models.Player{ID: ann.ID, Name: "Anna", Age: intp(31)}, updated)

	require.NoError(t, store.Delete(ctx, bob.ID))

	players, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Player{updated}, players)
}

func TestStore_NotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, 404, models.NewPlayer{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 404), ErrNotFound)

	_, err = store.Token(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmptyListIsNotNil(t *testing.T) {
	players, err := setupStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, players)
	assert.Empty(t, players)
}

func TestStore_SaveTokenUpserts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, models.FCMToken{UserID: "ann@example.com", Token: "first"}))
	require.NoError(t, store.SaveToken(ctx, models.FCMToken{UserID: "ann@example.com", Token: "second"}))

	token, err := store.Token(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestStore_VerifySchema(t *testing.T) {
	store := setupStore(t)

	report, err := store.VerifySchema()
	require.NoError(t, err)
	assert.Empty(t, report)

	require.NoError(t, store.db.Exec("ALTER TABLE players DROP COLUMN email").Error)

	report, err = store.VerifySchema()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"players": {"email"}}, report)
}

func TestStore_ListError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `players`").WillReturnError(errors.New("connection reset"))

	_, err := NewStore(db).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteNoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `players`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewStore(db).Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `players`").WillReturnError(errors.New("duplicate"))
	mock.ExpectRollback()

	_, err := NewStore(db).Create(context.Background(), models.NewPlayer{Name: "Ann"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create player")
	assert.NoError(t, mock.ExpectationsWereMet())
}
