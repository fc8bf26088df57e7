package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/repository"
)

const dateLayout = "2006-01-02"

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	byCode map[string]*models.Link
	byID   map[int64]*models.Link
	nextID int64
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		byCode: make(map[string]*models.Link),
		byID:   make(map[int64]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	m.byCode[link.ShortCode] = link
	m.byID[link.ID] = link
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.byCode[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockLinkRepository) GetByUser(ctx context.Context, userID int64) ([]*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []*models.Link
	for _, link := range m.byCode {
		if link.UserID == userID {
			links = append(links, link)
		}
	}
	return links, nil
}

// MockClickRepository implements repository.ClickRepository for testing.
// It shares link state with a MockLinkRepository so that increments and
// the per-user join behave like the real schema.
type MockClickRepository struct {
	mu     sync.RWMutex
	links  *MockLinkRepository
	events []models.ClickEvent
	nextID int64
}

func NewMockClickRepository(links *MockLinkRepository) *MockClickRepository {
	return &MockClickRepository{
		links:  links,
		nextID: 1,
	}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, linkID int64, clickedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links.mu.Lock()
	link, exists := m.links.byID[linkID]
	if !exists {
		m.links.mu.Unlock()
		return repository.ErrLinkNotFound
	}
	link.ClickCount++
	m.links.mu.Unlock()

	m.events = append(m.events, models.ClickEvent{
		ID:        m.nextID,
		LinkID:    linkID,
		ClickedAt: clickedAt,
	})
	m.nextID++
	return nil
}

func (m *MockClickRepository) CountByLinkAndDay(ctx context.Context, linkID int64, start, end time.Time) ([]models.DailyClicks, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, ev := range m.events {
		if ev.LinkID != linkID {
			continue
		}
		if ev.ClickedAt.Before(start) || ev.ClickedAt.After(end) {
			continue
		}
		counts[ev.ClickedAt.UTC().Format(dateLayout)]++
	}

	var stats []models.DailyClicks
	for day, count := range counts {
		stats = append(stats, models.DailyClicks{ClickDate: day, Count: count})
	}
	return stats, nil
}

func (m *MockClickRepository) CountByUserAndDay(ctx context.Context, userID int64, from, to time.Time) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.links.mu.RLock()
	defer m.links.mu.RUnlock()

	totals := make(map[string]int64)
	for _, ev := range m.events {
		link, exists := m.links.byID[ev.LinkID]
		if !exists || link.UserID != userID {
			continue
		}
		if ev.ClickedAt.Before(from) || !ev.ClickedAt.Before(to) {
			continue
		}
		totals[ev.ClickedAt.UTC().Format(dateLayout)]++
	}
	return totals, nil
}

func (m *MockClickRepository) ReconcileCounts(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	actual := make(map[int64]int64)
	for _, ev := range m.events {
		actual[ev.LinkID]++
	}

	var fixed int64
	for id, count := range actual {
		link, exists := m.links.byID[id]
		if exists && link.ClickCount != count {
			link.ClickCount = count
			fixed++
		}
	}
	return fixed, nil
}

// Events returns a copy of the recorded click events
func (m *MockClickRepository) Events() []models.ClickEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]models.ClickEvent, len(m.events))
	copy(events, m.events)
	return events
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, code string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[code] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, code)
	return nil
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; exists {
		return repository.ErrUserExists
	}

	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[username]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}
