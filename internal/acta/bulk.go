package acta

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ikusi/acta-ui/internal/logging"
)

const (
	DefaultBulkConcurrency = 4
	DefaultBulkRate        = 2 // generations started per second
)

// BulkFailure is one project whose generation could not be triggered.
type BulkFailure struct {
	ProjectID string
	Err       error
}

// BulkResult lists outcomes in input order.
type BulkResult struct {
	Succeeded []string
	Failed    []BulkFailure
}

func (r BulkResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// BulkGenerate triggers generation for every project. At most concurrency
// calls run at once and at most rps are started per second. A failed
// project does not stop the others and is not retried.
func (s *Service) BulkGenerate(ctx context.Context, projectIDs []string, concurrency int, rps float64) BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	limiter := rate.NewLimiter(limit, 1)
	logger := logging.NewLogger(ctx)

	errs := make([]error, len(projectIDs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range projectIDs {
		g.Go(func() error {
			err := limiter.Wait(ctx)
			if err == nil {
				_, err = s.GenerateDocument(ctx, id)
			}
			errs[i] = err
			return nil
		})
	}
	g.Wait()

	var res BulkResult
	for i, id := range projectIDs {
		if errs[i] != nil {
			res.Failed = append(res.Failed, BulkFailure{ProjectID: id, Err: errs[i]})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	logger.LogInfof("bulk_generate", "bulk generation finished total=%d succeeded=%d failed=%d",
		res.Total(), len(res.Succeeded), len(res.Failed))
	return res
}
