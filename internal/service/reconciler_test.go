package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/avoronov/url-shortener/internal/service"
	"github.com/avoronov/url-shortener/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestCountReconciler_RunOnce проверяет, что разошедшийся счётчик
// переписывается из журнала кликов
func TestCountReconciler_RunOnce(t *testing.T) {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository(linkRepo)
	reconciler := service.NewCountReconciler(clickRepo, time.Minute, zap.NewNop())

	ctx := context.Background()
	link := seedLink(t, linkRepo, "drifted1", 1)

	for i := 0; i < 3; i++ {
		seedClick(t, clickRepo, link.ID, time.Now().UTC())
	}
	require.Equal(t, int64(3), link.ClickCount)

	// Имитируем потерянное обновление счётчика
	link.ClickCount = 1

	fixed, err := reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)
	assert.Equal(t, int64(3), link.ClickCount, "счётчик должен сойтись с журналом")

	// Повторная сверка ничего не меняет
	fixed, err = reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fixed)
}

// TestCountReconciler_StartStop проверяет корректный запуск и остановку воркера
func TestCountReconciler_StartStop(t *testing.T) {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository(linkRepo)
	reconciler := service.NewCountReconciler(clickRepo, 10*time.Millisecond, zap.NewNop())

	reconciler.Start()
	time.Sleep(50 * time.Millisecond)
	reconciler.Stop()
}
