package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/repository"
	"github.com/avoronov/url-shortener/internal/service"
	"github.com/avoronov/url-shortener/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080"

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// setupLinkService создаёт тестовое окружение с моковыми репозиториями
func setupLinkService() (service.LinkService, *mocks.MockLinkRepository, *mocks.MockClickRepository, *mocks.MockCacheRepository) {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository(linkRepo)
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()
	linkService := service.NewLinkService(linkRepo, clickRepo, cacheRepo, testBaseURL, logger)
	return linkService, linkRepo, clickRepo, cacheRepo
}

func testUser() *models.User {
	return &models.User{
		ID:       1,
		Username: "alice",
		Role:     models.RoleUser,
	}
}

// TestLinkService_Shorten_Success проверяет успешное создание короткой ссылки
func TestLinkService_Shorten_Success(t *testing.T) {
	linkService, _, _, _ := setupLinkService()

	ctx := context.Background()
	dto, err := linkService.Shorten(ctx, "https://example.com/test", testUser())

	require.NoError(t, err)
	assert.Len(t, dto.ShortURL, len(testBaseURL)+1+8, "короткий код должен быть из 8 символов")
	assert.True(t, strings.HasPrefix(dto.ShortURL, testBaseURL+"/"))
	assert.Equal(t, "https://example.com/test", dto.OriginalURL)
	assert.Equal(t, "alice", dto.Username)
	assert.Equal(t, int64(0), dto.ClickCount)
	assert.False(t, dto.CreatedTime.IsZero())
}

// TestLinkService_Shorten_CodeAlphabet проверяет алфавит короткого кода
func TestLinkService_Shorten_CodeAlphabet(t *testing.T) {
	linkService, linkRepo, _, _ := setupLinkService()

	ctx := context.Background()
	dto, err := linkService.Shorten(ctx, "https://example.com", testUser())
	require.NoError(t, err)

	code := strings.TrimPrefix(dto.ShortURL, testBaseURL+"/")
	require.Len(t, code, 8)
	for _, ch := range code {
		assert.Contains(t, codeCharset, string(ch), "символ должен быть из [A-Za-z0-9]")
	}

	// Код действительно сохранён в репозитории
	link, err := linkRepo.GetByShortCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)
}

// TestLinkService_Shorten_EmptyURL проверяет отклонение пустого URL
func TestLinkService_Shorten_EmptyURL(t *testing.T) {
	linkService, _, _, _ := setupLinkService()

	ctx := context.Background()
	for _, url := range []string{"", "   "} {
		dto, err := linkService.Shorten(ctx, url, testUser())
		assert.ErrorIs(t, err, service.ErrEmptyURL)
		assert.Nil(t, dto)
	}
}

// TestLinkService_Shorten_UniqueCodes проверяет уникальность генерируемых кодов
func TestLinkService_Shorten_UniqueCodes(t *testing.T) {
	linkService, _, _, _ := setupLinkService()

	ctx := context.Background()
	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		dto, err := linkService.Shorten(ctx, "https://example.com/page", testUser())
		require.NoError(t, err)
		code := strings.TrimPrefix(dto.ShortURL, testBaseURL+"/")
		assert.NotContains(t, codes, code, "короткие коды должны быть уникальными")
		codes[code] = true
	}
}

// TestLinkService_Resolve_CountsClicks проверяет, что N последовательных
// разрешений дают ровно N к счётчику и N событий клика
func TestLinkService_Resolve_CountsClicks(t *testing.T) {
	linkService, linkRepo, clickRepo, _ := setupLinkService()

	ctx := context.Background()
	dto, err := linkService.Shorten(ctx, "https://example.com/popular", testUser())
	require.NoError(t, err)
	code := strings.TrimPrefix(dto.ShortURL, testBaseURL+"/")

	const n = 5
	for i := 0; i < n; i++ {
		destination, err := linkService.Resolve(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/popular", destination)
	}

	link, err := linkRepo.GetByShortCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, int64(n), link.ClickCount)
	assert.Len(t, clickRepo.Events(), n)
}

// TestLinkService_Resolve_NotFound проверяет разрешение несуществующего кода
func TestLinkService_Resolve_NotFound(t *testing.T) {
	linkService, _, clickRepo, _ := setupLinkService()

	ctx := context.Background()
	destination, err := linkService.Resolve(ctx, "AAAAbbbb")

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.Empty(t, destination)
	assert.Empty(t, clickRepo.Events(), "не должно появиться событий клика")
}

// TestLinkService_Resolve_Normalization проверяет нормализацию протокола
func TestLinkService_Resolve_Normalization(t *testing.T) {
	linkService, linkRepo, _, _ := setupLinkService()

	ctx := context.Background()

	// Ссылка без протокола попадает в хранилище как есть
	bare := &models.Link{
		ShortCode:   "bareHost",
		OriginalURL: "example.com/a",
		UserID:      1,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, linkRepo.Create(ctx, bare))

	destination, err := linkService.Resolve(ctx, "bareHost")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a", destination)

	https := &models.Link{
		ShortCode:   "httpsUrl",
		OriginalURL: "https://example.com/a",
		UserID:      1,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, linkRepo.Create(ctx, https))

	destination, err = linkService.Resolve(ctx, "httpsUrl")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", destination)
}

// TestLinkService_Resolve_CacheHitStillCounts проверяет, что попадание в кэш
// не пропускает запись клика
func TestLinkService_Resolve_CacheHitStillCounts(t *testing.T) {
	linkService, linkRepo, clickRepo, cacheRepo := setupLinkService()

	ctx := context.Background()
	dto, err := linkService.Shorten(ctx, "https://example.com/cached", testUser())
	require.NoError(t, err)
	code := strings.TrimPrefix(dto.ShortURL, testBaseURL+"/")

	// Первое разрешение кладёт ссылку в кэш
	_, err = linkService.Resolve(ctx, code)
	require.NoError(t, err)
	_, err = cacheRepo.Get(ctx, code)
	require.NoError(t, err, "ссылка должна оказаться в кэше")

	// Второе разрешение идёт из кэша, но клик всё равно фиксируется
	_, err = linkService.Resolve(ctx, code)
	require.NoError(t, err)

	link, err := linkRepo.GetByShortCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.ClickCount)
	assert.Len(t, clickRepo.Events(), 2)
}

// TestLinkService_LinksByUser проверяет выборку ссылок пользователя
func TestLinkService_LinksByUser(t *testing.T) {
	linkService, _, _, _ := setupLinkService()

	ctx := context.Background()
	alice := testUser()
	bob := &models.User{ID: 2, Username: "bob", Role: models.RoleUser}

	for i := 0; i < 3; i++ {
		_, err := linkService.Shorten(ctx, "https://example.com/alice", alice)
		require.NoError(t, err)
	}
	_, err := linkService.Shorten(ctx, "https://example.com/bob", bob)
	require.NoError(t, err)

	links, err := linkService.LinksByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, links, 3)
	for _, link := range links {
		assert.Equal(t, "alice", link.Username)
	}
}

// TestNormalizeURL проверяет таблицу нормализации протокола
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com/a", "http://example.com/a"},
		{"www.google.com", "http://www.google.com"},
		{"http://example.com/a", "http://example.com/a"},
		{"https://example.com/a", "https://example.com/a"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, service.NormalizeURL(tt.in))
	}
}
