// Пакет notify — фоновая отправка уведомлений после ответа пользователю.
// Уведомления некритичны: сбой отправки логируется и не влияет на
// результат операции, из которой уведомление родилось.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdeskhub/ui-module/internal/session"
)

// Таймаут отправки одного уведомления.
const jobTimeout = 10 * time.Second

// Job — отложенная отправка уведомления. Несёт сессию инициатора,
// чтобы notification-сервис получил её bearer token.
type Job struct {
	id   string
	kind string
	sess *session.Data
	send func(ctx context.Context) error
}

// NewJob создаёт задание на отправку уведомления.
// kind — тип уведомления для логов (comment, status, assign).
func NewJob(kind string, sess *session.Data, send func(ctx context.Context) error) Job {
	return Job{
		id:   uuid.NewString(),
		kind: kind,
		sess: sess,
		send: send,
	}
}

// Dispatcher — очередь уведомлений с одним фоновым воркером.
// Отправка не блокирует HTTP-обработчики: Enqueue кладёт задание
// в буферизованный канал и сразу возвращается.
type Dispatcher struct {
	jobs   chan Job
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher создаёт диспетчер с очередью на queueSize заданий.
func NewDispatcher(queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		jobs:   make(chan Job, queueSize),
		logger: logger.With(slog.String("component", "notify_dispatcher")),
	}
}

// Start запускает фоновый воркер.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(1)
	go d.run(ctx)

	d.logger.Info("Диспетчер уведомлений запущен",
		slog.Int("queue_size", cap(d.jobs)),
	)
}

// Stop останавливает воркер. Задания, оставшиеся в очереди,
// не отправляются — уведомления допускают потерю.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info("Диспетчер уведомлений остановлен")
}

// Enqueue ставит задание в очередь. При переполненной очереди задание
// отбрасывается с предупреждением — блокировать обработчик нельзя.
func (d *Dispatcher) Enqueue(job Job) {
	select {
	case d.jobs <- job:
	default:
		d.logger.Warn("Очередь уведомлений переполнена, задание отброшено",
			slog.String("job_id", job.id),
			slog.String("kind", job.kind),
		)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.dispatch(ctx, job)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	// Токен инициатора уходит вместе с заданием
	jobCtx = session.WithContext(jobCtx, job.sess)

	if err := job.send(jobCtx); err != nil {
		d.logger.Warn("Не удалось отправить уведомление",
			slog.String("job_id", job.id),
			slog.String("kind", job.kind),
			slog.String("error", err.Error()),
		)
		return
	}

	d.logger.Debug("Уведомление отправлено",
		slog.String("job_id", job.id),
		slog.String("kind", job.kind),
	)
}
