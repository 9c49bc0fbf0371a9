package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/shortcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

var (
	ErrURLNotFound = errors.New("url not found")
	ErrCodeExists  = errors.New("short code already exists")
)

// DBTX общий интерфейс пула и транзакции pgx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type URLRepository interface {
	Create(ctx context.Context, originalURL string) (*models.URL, error)
	GetByShortCode(ctx context.Context, code string) (*models.URL, error)
	IncrementClicks(ctx context.Context, url *models.URL) error
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
}

type urlRepository struct {
	db        DBTX
	generator *shortcode.Generator
}

func NewURLRepository(db DBTX, maxAttempts int) URLRepository {
	r := &urlRepository{db: db}
	r.generator = shortcode.NewGenerator(r, shortcode.DefaultLength, maxAttempts)
	return r
}

// newURLRepositoryWithChecker подменяет проверку занятости кода
func newURLRepositoryWithChecker(db DBTX, checker shortcode.Checker) *urlRepository {
	return &urlRepository{
		db:        db,
		generator: shortcode.NewGenerator(checker, shortcode.DefaultLength, 1),
	}
}

// Create получает свободный код у генератора и сохраняет запись с clicks = 0
func (r *urlRepository) Create(ctx context.Context, originalURL string) (*models.URL, error) {
	code, err := r.generator.Unique(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate short code: %w", err)
	}

	query := `
		INSERT INTO urls (original_url, short_code, clicks)
		VALUES ($1, $2, 0)
		RETURNING id, original_url, short_code, created_at, clicks
	`

	url := &models.URL{}
	err = r.db.QueryRow(ctx, query, originalURL, code).Scan(
		&url.ID,
		&url.OriginalURL,
		&url.ShortCode,
		&url.CreatedAt,
		&url.Clicks,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create url: %w", err)
	}

	return url, nil
}

func (r *urlRepository) GetByShortCode(ctx context.Context, code string) (*models.URL, error) {
	query := `
		SELECT id, original_url, short_code, created_at, clicks
		FROM urls
		WHERE short_code = $1
	`

	url := &models.URL{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&url.ID,
		&url.OriginalURL,
		&url.ShortCode,
		&url.CreatedAt,
		&url.Clicks,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to get url: %w", err)
	}

	return url, nil
}

// IncrementClicks атомарно увеличивает счётчик на 1 и обновляет url.Clicks
func (r *urlRepository) IncrementClicks(ctx context.Context, url *models.URL) error {
	query := `UPDATE urls SET clicks = clicks + 1 WHERE id = $1 RETURNING clicks`

	var clicks int64
	if err := r.db.QueryRow(ctx, query, url.ID).Scan(&clicks); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrURLNotFound
		}
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	url.Clicks = clicks
	return nil
}

func (r *urlRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM urls WHERE short_code = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
