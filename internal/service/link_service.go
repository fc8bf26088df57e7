package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrEmptyURL      = errors.New("original URL is empty")
	ErrCodeSpaceBusy = errors.New("could not generate a free short code")
)

// Константы сервиса
const (
	codeLength          = 8
	charset             = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxGenerateAttempts = 5
	cacheTTL            = 24 * time.Hour
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	Shorten(ctx context.Context, originalURL string, user *models.User) (*models.LinkDTO, error)
	LinksByUser(ctx context.Context, user *models.User) ([]models.LinkDTO, error)
	Resolve(ctx context.Context, code string) (string, error)
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	cacheRepo repository.CacheRepository
	baseURL   string
	logger    *zap.Logger
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	cacheRepo repository.CacheRepository,
	baseURL string,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		cacheRepo: cacheRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Shorten создаёт короткую ссылку для пользователя.
// Генератор не проверяет занятость кода: уникальность обеспечивает
// ограничение в БД, при коллизии код перегенерируется (не более 5 попыток).
func (s *linkService) Shorten(ctx context.Context, originalURL string, user *models.User) (*models.LinkDTO, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, ErrEmptyURL
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := s.generateShortCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		link := &models.Link{
			ShortCode:   code,
			OriginalURL: originalURL,
			UserID:      user.ID,
			CreatedAt:   time.Now().UTC(),
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			dto := s.toDTO(link, user.Username)
			return &dto, nil
		}
		if errors.Is(err, repository.ErrCodeExists) {
			s.logger.Warn("Short code collision, regenerating",
				zap.String("code", code),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, err
	}

	return nil, ErrCodeSpaceBusy
}

// LinksByUser возвращает все ссылки пользователя
func (s *linkService) LinksByUser(ctx context.Context, user *models.User) ([]models.LinkDTO, error) {
	links, err := s.linkRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	dtos := make([]models.LinkDTO, 0, len(links))
	for _, link := range links {
		dtos = append(dtos, s.toDTO(link, user.Username))
	}
	return dtos, nil
}

// Resolve разрешает короткий код в оригинальный URL и фиксирует клик.
// Маппинг берётся из кэша (cache-aside), но инкремент счётчика и запись
// события всегда идут в БД одной транзакцией.
func (s *linkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err != nil {
		link, err = s.linkRepo.GetByShortCode(ctx, code)
		if err != nil {
			return "", err
		}
		if err := s.cacheRepo.Set(ctx, code, link, cacheTTL); err != nil {
			s.logger.Debug("Failed to cache link", zap.String("code", code), zap.Error(err))
		}
	}

	if err := s.clickRepo.RecordClick(ctx, link.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// Кэш пережил запись в БД, чистим
			s.cacheRepo.Delete(ctx, code)
		}
		return "", err
	}

	return NormalizeURL(link.OriginalURL), nil
}

// NormalizeURL добавляет http://, если протокол не указан: браузер трактует
// "www.example.com" в Location как относительный путь.
func NormalizeURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

// generateShortCode генерирует код из 8 символов [A-Za-z0-9].
// Каждый символ выбирается независимо и равномерно, 62^8 комбинаций.
func (s *linkService) generateShortCode() (string, error) {
	result := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

func (s *linkService) toDTO(link *models.Link, username string) models.LinkDTO {
	return models.LinkDTO{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortURL:    s.baseURL + "/" + link.ShortCode,
		ClickCount:  link.ClickCount,
		CreatedTime: link.CreatedAt,
		Username:    username,
	}
}
