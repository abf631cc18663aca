package engine

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// PriceFunc 单个定价调用，如 EuropeanPricer.Price 或 AmericanBinomialPricer.Estimate.
type PriceFunc func(s0, t, r float64) (types.Estimate, error)

// Job 一个独立的定价任务。每个任务应持有自己的定价器 (即自己的种子).
type Job struct {
	Name  string
	Price PriceFunc
	S0    float64
	T     float64
	R     float64
}

// Result 与 Job 按下标一一对应.
type Result struct {
	Name     string
	Estimate types.Estimate
	Err      error
	Duration time.Duration
}

// Batch 在有界协程池上并发执行任务，结果顺序与 jobs 一致.
// ctx 取消后尚未开始的任务直接以 ctx.Err() 结束，已开始的任务运行至完成.
func (e *Engine) Batch(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	workers := e.Config().Concurrency.Workers

	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for i := range jobs {
		p.Go(func(ctx context.Context) error {
			results[i] = runJob(ctx, jobs[i])
			return nil
		})
	}
	_ = p.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	e.logger.InfoContext(ctx, "batch pricing finished", "jobs", len(jobs), "failed", failed, "workers", workers)
	return results
}

func runJob(ctx context.Context, job Job) Result {
	res := Result{Name: job.Name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if job.Price == nil {
		res.Err = xerrors.ErrInvalidInput.WithDetail("job %q has no price function", job.Name)
		return res
	}
	start := time.Now()
	res.Estimate, res.Err = job.Price(job.S0, job.T, job.R)
	res.Duration = time.Since(start)
	return res
}
