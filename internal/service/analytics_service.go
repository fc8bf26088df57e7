package service

import (
	"context"
	"time"

	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/repository"
)

// AnalyticsService агрегирует события кликов по календарным дням
type AnalyticsService interface {
	LinkClicksByDay(ctx context.Context, code string, start, end time.Time) ([]models.DailyClicks, error)
	UserClicksByDay(ctx context.Context, user *models.User, startDate, endDate time.Time) (map[string]int64, error)
}

type analyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
}

func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository) AnalyticsService {
	return &analyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
	}
}

// LinkClicksByDay возвращает дневные счётчики кликов ссылки за [start, end]
// (обе границы включительно). Несуществующий код — ErrLinkNotFound, это
// не то же самое, что пустой результат. Дни без кликов не возвращаются.
func (s *analyticsService) LinkClicksByDay(ctx context.Context, code string, start, end time.Time) ([]models.DailyClicks, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.clickRepo.CountByLinkAndDay(ctx, link.ID, start, end)
}

// UserClicksByDay возвращает суммарные дневные счётчики по всем ссылкам
// пользователя. endDate входит в период целиком: верхняя граница запроса —
// начало следующего за ним дня (исключительно). Нет ссылок — пустая карта.
func (s *analyticsService) UserClicksByDay(ctx context.Context, user *models.User, startDate, endDate time.Time) (map[string]int64, error) {
	from := startOfDay(startDate)
	to := startOfDay(endDate).AddDate(0, 0, 1)

	return s.clickRepo.CountByUserAndDay(ctx, user.ID, from, to)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.UTC).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
