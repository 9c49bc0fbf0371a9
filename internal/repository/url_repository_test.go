package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SergeiKhy/shorturl/internal/config"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/shortcode"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestDB поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDB(t *testing.T) *PostgresDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
		SSLMode:  "disable",
		MaxConns: 10,
		MinConns: 1,
	}

	require.NoError(t, Migrate(cfg.DSN(), zap.NewNop()))

	db, err := NewPostgresDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func TestURLRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewURLRepository(db.Pool, shortcode.DefaultMaxAttempts)
	ctx := context.Background()

	t.Run("создание записи", func(t *testing.T) {
		url, err := repo.Create(ctx, "https://example.com")
		require.NoError(t, err)

		assert.NotZero(t, url.ID)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.True(t, shortcode.IsValid(url.ShortCode, 6))
		assert.Zero(t, url.Clicks)
		assert.WithinDuration(t, time.Now(), url.CreatedAt, time.Minute)
	})

	t.Run("поиск по коду", func(t *testing.T) {
		created, err := repo.Create(ctx, "https://example.com/get")
		require.NoError(t, err)

		found, err := repo.GetByShortCode(ctx, created.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.OriginalURL, found.OriginalURL)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

		again, err := repo.GetByShortCode(ctx, created.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, found, again)
	})

	t.Run("несуществующий код", func(t *testing.T) {
		url, err := repo.GetByShortCode(ctx, "zzzzzz")
		assert.ErrorIs(t, err, ErrURLNotFound)
		assert.Nil(t, url)

		exists, err := repo.ExistsByShortCode(ctx, "zzzzzz")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("проверка существования", func(t *testing.T) {
		created, err := repo.Create(ctx, "https://example.com/exists")
		require.NoError(t, err)

		exists, err := repo.ExistsByShortCode(ctx, created.ShortCode)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("увеличение счётчика", func(t *testing.T) {
		url, err := repo.Create(ctx, "https://example.com/clicks")
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			require.NoError(t, repo.IncrementClicks(ctx, url))
			assert.Equal(t, int64(i), url.Clicks)
		}

		stored, err := repo.GetByShortCode(ctx, url.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stored.Clicks)
	})

	t.Run("счётчик несуществующей записи", func(t *testing.T) {
		err := repo.IncrementClicks(ctx, &models.URL{ID: -1})
		assert.ErrorIs(t, err, ErrURLNotFound)
	})

	t.Run("конкурентное увеличение счётчика", func(t *testing.T) {
		url, err := repo.Create(ctx, "https://example.com/concurrent-clicks")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u := &models.URL{ID: url.ID}
				assert.NoError(t, repo.IncrementClicks(ctx, u))
			}()
		}
		wg.Wait()

		stored, err := repo.GetByShortCode(ctx, url.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(20), stored.Clicks)
	})

	t.Run("конкурентное создание", func(t *testing.T) {
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = make(map[string]bool)
		)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				url, err := repo.Create(ctx, "https://example.com/parallel")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				codes[url.ShortCode] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, codes, 5)
	})
}

// TestURLRepository_UniqueConstraint проверяет ограничение уникальности на уровне БД
func TestURLRepository_UniqueConstraint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO urls (original_url, short_code) VALUES ($1, $2)`

	_, err := db.Pool.Exec(ctx, insert, "https://example.com/a", "abc123")
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, insert, "https://example.com/b", "abc123")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	var clicks int64
	err = db.Pool.QueryRow(ctx, `SELECT clicks FROM urls WHERE short_code = 'abc123'`).Scan(&clicks)
	require.NoError(t, err)
	assert.Zero(t, clicks)
}

// racingChecker сообщает, что код свободен, но успевает занять его сам
type racingChecker struct {
	db *PostgresDB
}

func (c *racingChecker) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	_, err := c.db.Pool.Exec(ctx,
		`INSERT INTO urls (original_url, short_code) VALUES ('https://example.com/first', $1)`, code)
	return false, err
}

// TestURLRepository_Create_CodeTaken проверяет гонку между проверкой кода и вставкой
func TestURLRepository_Create_CodeTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := newURLRepositoryWithChecker(db.Pool, &racingChecker{db: db})

	url, err := repo.Create(ctx, "https://example.com/second")

	assert.ErrorIs(t, err, ErrCodeExists)
	assert.Nil(t, url)

	var count int
	err = db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM urls`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var original string
	err = db.Pool.QueryRow(ctx, `SELECT original_url FROM urls`).Scan(&original)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/first", original)
}

func testDSN(db *PostgresDB) string {
	cfg := db.Pool.Config().ConnConfig
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// TestMigrator_DownUp проверяет откат и повторное применение миграций
func TestMigrator_DownUp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	core, logs := observer.New(zapcore.InfoLevel)
	m, err := NewMigrator(testDSN(db), zap.New(core))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Down())

	var exists bool
	err = db.Pool.QueryRow(ctx, `SELECT to_regclass('public.urls') IS NOT NULL`).Scan(&exists)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up())

	err = db.Pool.QueryRow(ctx, `SELECT to_regclass('public.urls') IS NOT NULL`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)

	migrated := logs.FilterMessage("Database migrated").All()
	require.Len(t, migrated, 1)
	assert.Equal(t, uint64(1), migrated[0].ContextMap()["version"])
	assert.Equal(t, 1, logs.FilterMessage("Database schema is up to date").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

// TestMigrator_Dirty проверяет, что грязная схема не считается применённой
func TestMigrator_Dirty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Pool.Exec(ctx, `UPDATE schema_migrations SET dirty = true`)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	m, err := NewMigrator(testDSN(db), zap.New(core))
	require.NoError(t, err)
	defer m.Close()

	err = m.Up()

	var dirty migrate.ErrDirty
	require.True(t, errors.As(err, &dirty), "expected ErrDirty, got %v", err)
	assert.Equal(t, 1, dirty.Version)
	assert.Zero(t, logs.FilterMessage("Database migrated").Len())
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", migrateURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h:5432/db", migrateURL("postgresql://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
}
