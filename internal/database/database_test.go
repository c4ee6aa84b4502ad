package database

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/killallgit/wavepng/internal/models"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name   string
		dbPath string
	}{
		{name: "in-memory database", dbPath: ":memory:"},
		{name: "empty path is in-memory", dbPath: ""},
		{name: "file database", dbPath: filepath.Join(t.TempDir(), "cache.db")},
		{name: "file database in new directory", dbPath: filepath.Join(t.TempDir(), "nested", "dir", "cache.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Initialize(tt.dbPath, false)
			require.NoError(t, err)
			require.NotNil(t, conn)
			defer conn.Close()

			assert.NoError(t, conn.HealthCheck())
		})
	}
}

func TestDB_Close(t *testing.T) {
	conn, err := Initialize(":memory:", false)
	require.NoError(t, err)

	assert.NoError(t, conn.Close())
	assert.Error(t, conn.HealthCheck(), "HealthCheck should fail after database is closed")
}

func TestDB_HealthCheck(t *testing.T) {
	tests := []struct {
		name      string
		setupConn func() (*DB, func())
		wantErr   bool
	}{
		{
			name: "healthy connection",
			setupConn: func() (*DB, func()) {
				conn, _ := Initialize(":memory:", false)
				return conn, func() { conn.Close() }
			},
			wantErr: false,
		},
		{
			name: "closed connection",
			setupConn: func() (*DB, func()) {
				conn, _ := Initialize(":memory:", false)
				conn.Close()
				return conn, func() {}
			},
			wantErr: true,
		},
		{
			name: "nil connection",
			setupConn: func() (*DB, func()) {
				return nil, func() {}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, cleanup := tt.setupConn()
			defer cleanup()

			err := conn.HealthCheck()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitializeWithMigrations(t *testing.T) {
	for _, path := range []string{":memory:", filepath.Join(t.TempDir(), "cache.db")} {
		t.Run(path, func(t *testing.T) {
			conn, err := InitializeWithMigrations(path, false)
			require.NoError(t, err)
			defer conn.Close()

			var count int64
			err = conn.DB.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='envelope_sets'").Scan(&count).Error
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestDB_InMemoryIsSharedAcrossQueries(t *testing.T) {
	conn, err := InitializeWithMigrations(":memory:", false)
	require.NoError(t, err)
	defer conn.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set := models.EnvelopeSet{
				CacheKey:     models.CacheKey("a.wav", 1, 1, float64(i), 0, 10),
				SourcePath:   "a.wav",
				EnvelopeData: []byte("[]"),
			}
			assert.NoError(t, conn.DB.Create(&set).Error)
		}(i)
	}
	wg.Wait()

	var count int64
	require.NoError(t, conn.DB.Model(&models.EnvelopeSet{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)
}

func TestDB_Transaction(t *testing.T) {
	conn, err := InitializeWithMigrations(":memory:", false)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("successful transaction", func(t *testing.T) {
		err := conn.DB.Transaction(func(tx *gorm.DB) error {
			for i := 0; i < 3; i++ {
				set := models.EnvelopeSet{
					CacheKey:     models.CacheKey("tx.wav", 1, 1, 0, 0, i+1),
					SourcePath:   "tx.wav",
					EnvelopeData: []byte("[]"),
				}
				if err := tx.Create(&set).Error; err != nil {
					return err
				}
			}
			return nil
		})
		assert.NoError(t, err)

		var count int64
		conn.DB.Model(&models.EnvelopeSet{}).Where("source_path = ?", "tx.wav").Count(&count)
		assert.Equal(t, int64(3), count)
	})

	t.Run("failed transaction rollback", func(t *testing.T) {
		var countBefore int64
		conn.DB.Model(&models.EnvelopeSet{}).Count(&countBefore)

		err := conn.DB.Transaction(func(tx *gorm.DB) error {
			set := models.EnvelopeSet{
				CacheKey:     models.CacheKey("rollback.wav", 1, 1, 0, 0, 1),
				SourcePath:   "rollback.wav",
				EnvelopeData: []byte("[]"),
			}
			if err := tx.Create(&set).Error; err != nil {
				return err
			}
			return gorm.ErrInvalidTransaction
		})
		assert.Error(t, err)

		var countAfter int64
		conn.DB.Model(&models.EnvelopeSet{}).Count(&countAfter)
		assert.Equal(t, countBefore, countAfter)
	})
}
