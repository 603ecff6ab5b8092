package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Job tarea periódica con nombre. Run devuelve un resultado opcional (p. ej. *FoldResult).
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (any, error)
}

// Scheduler ejecuta tareas periódicas. Cada tarea es de vuelo único: un tick o un Trigger que llega
// mientras la tarea corre se une a la ejecución en curso en lugar de solaparse.
type Scheduler struct {
	log   zerolog.Logger
	group singleflight.Group

	mu     sync.Mutex
	jobs   map[string]Job
	order  []string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler crea un scheduler sin tareas.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log:  log,
		jobs: make(map[string]Job),
	}
}

// Register añade una tarea. Debe llamarse antes de Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; !ok {
		s.order = append(s.order, job.Name)
	}
	s.jobs[job.Name] = job
}

// Start lanza una goroutine por tarea; cada una corre una vez al inicio y luego en cada intervalo.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, name := range s.order {
		job := s.jobs[name]
		if job.Interval <= 0 {
			s.log.Warn().Str("job", job.Name).Msg("intervalo no válido; tarea deshabilitada")
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.log.Info().Int("jobs", len(s.order)).Msg("scheduler iniciado")
}

// Stop cancela las tareas y espera a que terminen.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info().Msg("scheduler detenido")
}

// Trigger ejecuta la tarea de inmediato (o se une a la ejecución en curso) y devuelve su resultado.
func (s *Scheduler) Trigger(ctx context.Context, name string) (any, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("tarea desconocida: %s", name)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if _, err := s.execute(ctx, job); err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Str("job", job.Name).Msg("tarea fallida")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.execute(ctx, job); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Str("job", job.Name).Msg("tarea fallida")
			}
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) (any, error) {
	v, err, _ := s.group.Do(job.Name, func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic en tarea %s: %v", job.Name, r)
			}
		}()
		start := time.Now()
		result, err = job.Run(ctx)
		s.log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("tarea ejecutada")
		return result, err
	})
	return v, err
}

// Nombres de las tareas registradas por la API.
const (
	JobStockCounter = "stock_counter"
	JobCatalogFold  = "catalog_fold"
)

// CounterJob envuelve la verificación contador/ledger como tarea del scheduler.
func CounterJob(r *CounterReconciler, interval time.Duration) Job {
	return Job{
		Name:     JobStockCounter,
		Interval: interval,
		Run:      func(ctx context.Context) (any, error) { return r.Run(ctx) },
	}
}

// CatalogJob envuelve el plegado de catálogo como tarea del scheduler.
func CatalogJob(f *CatalogFolder, interval time.Duration) Job {
	return Job{
		Name:     JobCatalogFold,
		Interval: interval,
		Run:      func(ctx context.Context) (any, error) { return f.Run(ctx) },
	}
}
