package database

import (
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/konorlevich/dealership_api/internal/config"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Text string
}

func getLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.FatalLevel)
	return logger.WithField("in_test", true)
}

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDb(config.DB{
		Driver:       config.DriverSqlite,
		File:         filepath.Join(t.TempDir(), "test.db"),
		LogLevel:     "silent",
		MaxOpenConns: 4,
	}, getLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db, &note{}))
	return db
}

func TestNewDb_Pragmas(t *testing.T) {
	db := setup(t)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	assert.False(t, IsPostgres(db))
}

func TestPaginate(t *testing.T) {
	db := setup(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&note{Text: "n"}).Error)
	}

	tests := []struct {
		description string
		page, limit int
		expected    int
	}{
		{"no limit returns everything", 0, 0, 7},
		{"first page", 1, 3, 3},
		{"last partial page", 3, 3, 1},
		{"page past the end", 4, 3, 0},
		{"page below one is the first page", -2, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var notes []note
			require.NoError(t, db.Scopes(Paginate(tt.page, tt.limit)).Order("id").Find(&notes).Error)
			assert.Len(t, notes, tt.expected)
		})
	}
}

func TestForUpdate_Sqlite(t *testing.T) {
	db := setup(t)
	require.NoError(t, db.Create(&note{Text: "locked"}).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		n := &note{}
		if err := ForUpdate(tx).First(n).Error; err != nil {
			return err
		}
		return tx.Model(n).Update("text", "updated").Error
	})
	require.NoError(t, err)

	n := &note{}
	require.NoError(t, db.First(n).Error)
	assert.Equal(t, "updated", n.Text)
}
