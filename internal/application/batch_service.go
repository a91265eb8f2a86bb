package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/abdidvp/shelfready/internal/domain"
)

// BatchOptions configures batch validation and pacing.
type BatchOptions struct {
	MaxSize     int           // Largest accepted listing selection
	Concurrency int           // Items in flight per chunk (concurrent strategy)
	Pause       time.Duration // Pause between chunks (concurrent strategy)
	ItemDelay   time.Duration // Delay between items (sequential strategy)
}

func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		MaxSize:     50,
		Concurrency: 5,
		Pause:       time.Second,
		ItemDelay:   2 * time.Second,
	}
}

// BatchRequest selects listings and an operation. Strategy is optional; the
// default depends on the operation.
type BatchRequest struct {
	ShopID     string           `json:"shop_id"`
	ListingIDs []string         `json:"listing_ids"`
	Operation  string           `json:"operation"`
	FixConfig  domain.FixConfig `json:"fix_config,omitempty"`
	Strategy   domain.Strategy  `json:"strategy,omitempty"`
}

// BatchJob is the in-memory state of one run. It is not persisted and
// cannot be resumed.
type BatchJob struct {
	ID         string
	ShopID     string
	ListingIDs []string
	Operation  domain.Operation
	Strategy   domain.Strategy
	FixConfig  domain.FixConfig

	mu        sync.Mutex
	results   []domain.ItemResult
	done      []bool
	processed int
	succeeded int
	failed    int
}

// BatchService applies an operation across many listings with per-item
// isolation and streams progress events.
type BatchService struct {
	audits *AuditService
	fixes  *FixService
	opts   BatchOptions
	log    logrus.FieldLogger
}

func NewBatchService(audits *AuditService, fixes *FixService, opts BatchOptions, log logrus.FieldLogger) *BatchService {
	def := DefaultBatchOptions()
	if opts.MaxSize <= 0 {
		opts.MaxSize = def.MaxSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &BatchService{audits: audits, fixes: fixes, opts: opts, log: log}
}

// Validate checks a request without running it.
func (s *BatchService) Validate(req BatchRequest) (*BatchJob, error) {
	if len(req.ListingIDs) == 0 {
		return nil, fmt.Errorf("%w: no listings selected", domain.ErrInvalidBatch)
	}
	if len(req.ListingIDs) > s.opts.MaxSize {
		return nil, fmt.Errorf("%w: %d listings selected, the maximum is %d", domain.ErrInvalidBatch, len(req.ListingIDs), s.opts.MaxSize)
	}
	op, err := domain.ParseOperation(req.Operation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBatch, err)
	}
	if op.Kind == domain.OpFix && !domain.IsKnownRuleKey(op.RuleKey) {
		return nil, fmt.Errorf("%w: unknown rule %q", domain.ErrInvalidBatch, op.RuleKey)
	}
	strategy := req.Strategy
	switch strategy {
	case "":
		strategy = domain.StrategyConcurrent
		if op.Kind == domain.OpGenerateImage {
			strategy = domain.StrategySequential
		}
	case domain.StrategyConcurrent, domain.StrategySequential:
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidBatch, strategy)
	}
	return &BatchJob{
		ID:         uuid.NewString(),
		ShopID:     req.ShopID,
		ListingIDs: append([]string(nil), req.ListingIDs...),
		Operation:  op,
		Strategy:   strategy,
		FixConfig:  req.FixConfig,
		results:    make([]domain.ItemResult, len(req.ListingIDs)),
		done:       make([]bool, len(req.ListingIDs)),
	}, nil
}

// Run validates the request and starts processing. Invalid requests are
// rejected before any work. The returned channel receives start, then
// processing/progress per item, then complete, and is closed afterwards.
// It is buffered for the whole run, so a slow reader never stalls items.
func (s *BatchService) Run(ctx context.Context, req BatchRequest) (<-chan domain.ProgressEvent, error) {
	job, err := s.Validate(req)
	if err != nil {
		return nil, err
	}
	events := make(chan domain.ProgressEvent, 2*len(job.ListingIDs)+2)
	go s.process(ctx, job, events)
	return events, nil
}

func (s *BatchService) process(ctx context.Context, job *BatchJob, events chan<- domain.ProgressEvent) {
	defer close(events)
	log := s.log.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"shop_id":   job.ShopID,
		"operation": job.Operation.String(),
		"strategy":  job.Strategy,
	})
	log.WithField("total", len(job.ListingIDs)).Info("batch started")
	events <- domain.ProgressEvent{Type: domain.EventStart, JobID: job.ID, Total: len(job.ListingIDs)}

	var cancelled bool
	if job.Strategy == domain.StrategySequential {
		cancelled = s.runSequential(ctx, job, events)
	} else {
		cancelled = s.runConcurrent(ctx, job, events)
	}

	summary := job.summary(cancelled)
	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"cancelled": summary.Cancelled,
	}).Info("batch finished")
	events <- domain.ProgressEvent{
		Type:      domain.EventComplete,
		JobID:     job.ID,
		Total:     summary.Total,
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Summary:   &summary,
	}
}

// runConcurrent processes fixed-size chunks in parallel with a pause
// between chunks. It reports whether the run was cancelled.
func (s *BatchService) runConcurrent(ctx context.Context, job *BatchJob, events chan<- domain.ProgressEvent) bool {
	size := s.opts.Concurrency
	for start := 0; start < len(job.ListingIDs); start += size {
		if start > 0 && !sleep(ctx, s.opts.Pause) {
			return true
		}
		end := min(start+size, len(job.ListingIDs))

		var g errgroup.Group
		g.SetLimit(size)
		cancelled := false
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				cancelled = true
				break
			}
			g.Go(func() error {
				s.runItem(ctx, job, i, events)
				return nil
			})
		}
		_ = g.Wait()
		if cancelled {
			return true
		}
	}
	return false
}

// runSequential processes one item at a time with a fixed delay between
// items, for operations that wait on slow generation.
func (s *BatchService) runSequential(ctx context.Context, job *BatchJob, events chan<- domain.ProgressEvent) bool {
	for i := range job.ListingIDs {
		if ctx.Err() != nil {
			return true
		}
		if i > 0 && !sleep(ctx, s.opts.ItemDelay) {
			return true
		}
		s.runItem(ctx, job, i, events)
	}
	return false
}

func (s *BatchService) runItem(ctx context.Context, job *BatchJob, i int, events chan<- domain.ProgressEvent) {
	id := job.ListingIDs[i]
	job.mu.Lock()
	events <- domain.ProgressEvent{Type: domain.EventProcessing, JobID: job.ID, Total: len(job.ListingIDs), Index: i, ListingID: id}
	job.mu.Unlock()

	item := s.safeItem(ctx, job, i)
	if !item.Success {
		s.log.WithFields(logrus.Fields{"job_id": job.ID, "listing_id": id}).Warn(item.Message)
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	job.results[i] = item
	job.done[i] = true
	job.processed++
	if item.Success {
		job.succeeded++
	} else {
		job.failed++
	}
	events <- domain.ProgressEvent{
		Type:      domain.EventProgress,
		JobID:     job.ID,
		Total:     len(job.ListingIDs),
		Index:     i,
		ListingID: id,
		Processed: job.processed,
		Succeeded: job.succeeded,
		Failed:    job.failed,
		Item:      &item,
	}
}

// safeItem runs one item and converts a panic into a failed result.
func (s *BatchService) safeItem(ctx context.Context, job *BatchJob, i int) (item domain.ItemResult) {
	id := job.ListingIDs[i]
	defer func() {
		if r := recover(); r != nil {
			item = domain.ItemResult{Index: i, ListingID: id, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	item = s.handle(ctx, job, id)
	item.Index = i
	item.ListingID = id
	return item
}

func (s *BatchService) handle(ctx context.Context, job *BatchJob, id string) domain.ItemResult {
	switch job.Operation.Kind {
	case domain.OpAudit:
		res, err := s.audits.AuditListing(ctx, job.ShopID, id)
		if err != nil {
			return domain.ItemResult{Message: domain.UserMessage(err)}
		}
		return domain.ItemResult{
			Success: true,
			Message: fmt.Sprintf("score %d (%s), %d failing", res.Score, res.Status, res.Failed),
			Score:   &res.Score,
		}

	case domain.OpFix:
		out, err := s.fixes.ApplyFix(ctx, job.ShopID, id, job.Operation.RuleKey, job.FixConfig)
		if err != nil {
			return domain.ItemResult{Message: domain.UserMessage(err)}
		}
		return fromOutcomes([]domain.FixOutcome{out}, out.Audit)

	case domain.OpGenerateImage:
		out, err := s.fixes.GenerateImage(ctx, job.ShopID, id, job.FixConfig)
		if err != nil {
			return domain.ItemResult{Message: domain.UserMessage(err)}
		}
		return fromOutcomes([]domain.FixOutcome{out}, out.Audit)

	case domain.OpFixAuto:
		outs, res, err := s.fixes.ApplyAutoFixes(ctx, job.ShopID, id, job.FixConfig)
		if err != nil {
			return domain.ItemResult{Message: domain.UserMessage(err)}
		}
		if len(outs) == 0 {
			item := domain.ItemResult{Success: true, NoOp: true, Message: "nothing to fix automatically"}
			if res != nil {
				item.Score = &res.Score
			}
			return item
		}
		return fromOutcomes(outs, res)
	}
	return domain.ItemResult{Message: fmt.Sprintf("unsupported operation %s", job.Operation)}
}

func fromOutcomes(outs []domain.FixOutcome, res *domain.AuditResult) domain.ItemResult {
	item := domain.ItemResult{Success: true, NoOp: true, Outcomes: outs}
	applied := 0
	for _, o := range outs {
		if !o.Success {
			item.Success = false
		}
		if !o.NoOp {
			item.NoOp = false
		}
		if o.Success && !o.NoOp {
			applied++
		}
	}
	switch {
	case len(outs) == 1:
		item.Message = outs[0].Message
	case item.Success:
		item.Message = fmt.Sprintf("applied %d fixes", applied)
	default:
		item.Message = fmt.Sprintf("applied %d of %d fixes", applied, len(outs))
		for _, o := range outs {
			if !o.Success {
				item.Message += "; " + string(o.RuleKey) + ": " + o.Message
			}
		}
	}
	if res != nil {
		item.Score = &res.Score
	}
	return item
}

func (j *BatchJob) summary(cancelled bool) domain.BatchSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]domain.ItemResult, 0, j.processed)
	for i, r := range j.results {
		if j.done[i] {
			results = append(results, r)
		}
	}
	return domain.BatchSummary{
		JobID:     j.ID,
		Operation: j.Operation.String(),
		Total:     len(j.ListingIDs),
		Processed: j.processed,
		Succeeded: j.succeeded,
		Failed:    j.failed,
		Cancelled: cancelled,
		Results:   results,
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
