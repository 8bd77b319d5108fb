package main

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dborio/gohas/internal/config"
)

// fileJob is one unit of batch work: a single input file decoded by its
// own independent has.Decoder, matching the no-shared-mutable-state
// sharding model each worker in the pool below operates under.
type fileJob struct {
	path string
}

// batchPool shards cfg.Inputs across a bounded worker pool, the same
// context.Context + sync.WaitGroup + buffered-channel shape as
// pkg/gnssgo/rtcm.WorkerPool, one independent decoder per file.
type batchPool struct {
	numWorkers int
	jobs       chan fileJob
	errs       chan error
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func newBatchPool(numWorkers, queueSize int) *batchPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &batchPool{
		numWorkers: numWorkers,
		jobs:       make(chan fileJob, queueSize),
		errs:       make(chan error, queueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *batchPool) start(cfg *config.Config, logger logrus.FieldLogger) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(cfg, logger)
	}
}

func (p *batchPool) worker(cfg *config.Config, logger logrus.FieldLogger) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			batchID := uuid.New().String()
			fileLogger := logger.WithFields(logrus.Fields{"batch_id": batchID, "input": job.path})
			if err := runOne(cfg, job.path, fileLogger); err != nil {
				select {
				case p.errs <- err:
				case <-p.ctx.Done():
				}
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *batchPool) submit(job fileJob) {
	select {
	case p.jobs <- job:
	case <-p.ctx.Done():
	}
}

// stop closes the job queue and waits for every worker to drain it
// before cancelling the context. Cancelling first would make each
// worker's select race between the now-ready ctx.Done() branch and the
// still-buffered jobs channel, letting a worker return with queued jobs
// never processed. No worker can block sending on errs, whose buffer
// holds one error per submitted job, so cancel() afterward only releases
// the context.
func (p *batchPool) stop() {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
	close(p.errs)
}

// runBatch decodes every file in cfg.Inputs concurrently, one independent
// has.Decoder per file, and returns the first worker error encountered.
func runBatch(cfg *config.Config, logger logrus.FieldLogger) error {
	workers := cfg.WorkerPoolSize
	if workers < 1 {
		workers = 1
	}
	pool := newBatchPool(workers, len(cfg.Inputs))
	pool.start(cfg, logger)

	for _, path := range cfg.Inputs {
		pool.submit(fileJob{path: path})
	}
	pool.stop()

	var first error
	for err := range pool.errs {
		if first == nil {
			first = err
		}
	}
	return first
}
