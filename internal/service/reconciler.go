package service

import (
	"context"
	"sync"
	"time"

	"github.com/avoronov/url-shortener/internal/repository"
	"go.uber.org/zap"
)

const reconcileTimeout = 30 * time.Second

// CountReconciler — фоновый воркер, периодически пересчитывающий
// денормализованный click_count из журнала кликов. Журнал — источник
// истины; счётчик — его материализованное представление.
type CountReconciler interface {
	Start()
	Stop()
	RunOnce(ctx context.Context) (int64, error)
}

type countReconciler struct {
	clickRepo repository.ClickRepository
	interval  time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewCountReconciler(clickRepo repository.ClickRepository, interval time.Duration, logger *zap.Logger) CountReconciler {
	return &countReconciler{
		clickRepo: clickRepo,
		interval:  interval,
		logger:    logger,
	}
}

// Start запускает цикл сверки
func (r *countReconciler) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.logger.Info("Запуск сверки счётчиков кликов", zap.Duration("interval", r.interval))

	r.wg.Add(1)
	go r.loop()
}

// Stop корректно останавливает воркер
func (r *countReconciler) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Сверка счётчиков остановлена")
}

func (r *countReconciler) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(r.ctx, reconcileTimeout)
			fixed, err := r.RunOnce(ctx)
			cancel()

			if err != nil {
				r.logger.Error("Не удалось сверить счётчики кликов", zap.Error(err))
				continue
			}
			if fixed > 0 {
				r.logger.Warn("Счётчики кликов разошлись с журналом",
					zap.Int64("links_fixed", fixed),
				)
			}
		}
	}
}

// RunOnce выполняет одну сверку и возвращает число исправленных ссылок
func (r *countReconciler) RunOnce(ctx context.Context) (int64, error) {
	return r.clickRepo.ReconcileCounts(ctx)
}
