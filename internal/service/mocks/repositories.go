package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
	"github.com/SergeiKhy/shorturl/internal/shortcode"
)

// MockURLRepository implements repository.URLRepository for testing
type MockURLRepository struct {
	mu        sync.RWMutex
	urls      map[string]*models.URL
	byID      map[int64]*models.URL
	nextID    int64
	generator *shortcode.Generator

	// Ошибки, которые возвращают соответствующие методы, если заданы
	CreateErr    error
	GetErr       error
	IncrementErr error
	ExistsErr    error
}

func NewMockURLRepository() *MockURLRepository {
	m := &MockURLRepository{
		urls:   make(map[string]*models.URL),
		byID:   make(map[int64]*models.URL),
		nextID: 1,
	}
	m.generator = shortcode.NewGenerator(m, shortcode.DefaultLength, shortcode.DefaultMaxAttempts)
	return m
}

func (m *MockURLRepository) Create(ctx context.Context, originalURL string) (*models.URL, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	code, err := m.generator.Unique(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.urls[code]; exists {
		return nil, repository.ErrCodeExists
	}

	url := &models.URL{
		ID:          m.nextID,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   time.Now().UTC(),
	}
	m.nextID++
	m.urls[code] = url
	m.byID[url.ID] = url

	stored := *url
	return &stored, nil
}

func (m *MockURLRepository) GetByShortCode(ctx context.Context, code string) (*models.URL, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	url, exists := m.urls[code]
	if !exists {
		return nil, repository.ErrURLNotFound
	}
	stored := *url
	return &stored, nil
}

func (m *MockURLRepository) IncrementClicks(ctx context.Context, url *models.URL) error {
	if m.IncrementErr != nil {
		return m.IncrementErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.byID[url.ID]
	if !exists {
		return repository.ErrURLNotFound
	}
	stored.Clicks++
	url.Clicks = stored.Clicks
	return nil
}

func (m *MockURLRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.urls[code]
	return exists, nil
}

// Count возвращает количество сохранённых записей
func (m *MockURLRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.urls)
}

func (m *MockURLRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = make(map[string]*models.URL)
	m.byID = make(map[int64]*models.URL)
	m.nextID = 1
}
