package harvester

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/twphl/ddb-harvester/internal/fetcher"
	"github.com/twphl/ddb-harvester/pkg/config"
	"github.com/twphl/ddb-harvester/pkg/logger"
	"github.com/twphl/ddb-harvester/pkg/oai"
	"github.com/twphl/ddb-harvester/pkg/ratelimit"
	"github.com/twphl/ddb-harvester/pkg/storage"
	"github.com/twphl/ddb-harvester/pkg/ui"
)

// Harvester orchestrates the record download process
type Harvester struct {
	client      Client
	storage     *storage.Manager
	rateLimiter ratelimit.Limiter
	tracker     *ui.StatusTracker
	config      *config.Config
	logger      logger.Logger
}

// SetStats accumulates the outcome of one set's harvest
type SetStats struct {
	Set      string
	Expected int
	Fetched  int
	Skipped  int
	Failed   int
}

// New creates a new Harvester instance
func New(cfg *config.Config) (*Harvester, error) {
	log := logger.GetLogger()

	client := oai.NewClient(cfg.Endpoint, cfg.Harvest.MaxRetries, log)

	rateLimiter := ratelimit.NewPerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)

	storageManager, err := storage.NewManager(cfg.Output.SaveDir, cfg.Output.OverwriteExisting)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return &Harvester{
		client:      client,
		storage:     storageManager,
		rateLimiter: rateLimiter,
		tracker:     ui.NewStatusTracker(),
		config:      cfg,
		logger:      log,
	}, nil
}

// Identify returns the repository self-description
func (h *Harvester) Identify(ctx context.Context) (*oai.Identify, error) {
	return h.client.Identify(ctx)
}

// Sets enumerates the sets selected for harvesting. With no explicit
// selection, only top-level sets are harvested; sub-collections repeat the
// same records.
func (h *Harvester) Sets(ctx context.Context) ([]oai.Set, error) {
	sets, err := h.client.ListSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}

	if len(h.config.Harvest.Sets) > 0 {
		wanted := make(map[string]bool, len(h.config.Harvest.Sets))
		for _, s := range h.config.Harvest.Sets {
			wanted[s] = true
		}
		var selected []oai.Set
		for _, s := range sets {
			if wanted[s.Spec] {
				selected = append(selected, s)
			}
		}
		return selected, nil
	}

	if h.config.Harvest.IncludeSubsets {
		return sets, nil
	}

	var topLevel []oai.Set
	for _, s := range sets {
		if s.IsTopLevel() {
			topLevel = append(topLevel, s)
		}
	}
	return topLevel, nil
}

// HarvestRecords downloads every record of every selected set, one GetRecord
// request per record, distributed across the fetch pool.
func (h *Harvester) HarvestRecords(ctx context.Context) error {
	sets, err := h.Sets(ctx)
	if err != nil {
		return err
	}

	h.logger.InfoWithFields("starting record harvest", map[string]interface{}{
		"sets":     len(sets),
		"workers":  h.config.Harvest.Workers,
		"save_dir": h.storage.BaseDir(),
	})
	ui.PrintInfo("Sets to harvest", fmt.Sprintf("%d", len(sets)))

	for _, set := range sets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats, err := h.harvestSet(ctx, set.Spec)
		if err != nil {
			return err
		}
		h.logSetSummary(stats)
	}

	h.logger.InfoWithFields("record harvest finished", map[string]interface{}{
		"total_fetched": h.tracker.TotalFetched,
		"total_failed":  h.tracker.TotalFailed,
		"elapsed":       h.tracker.Elapsed(),
	})
	return nil
}

// harvestSet fetches all records of one set through the worker pool.
// A listing failure is fatal; individual record failures are counted and
// skipped.
func (h *Harvester) harvestSet(ctx context.Context, set string) (*SetStats, error) {
	ui.PrintInfo("Processing set", set)

	headers, expected, err := h.client.ListIdentifiers(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}

	stats := &SetStats{Set: set, Expected: expected}

	if len(headers) == 0 {
		h.logger.WithField("set", set).Info("no identifiers found for set")
		return stats, nil
	}

	if expected > 0 && len(headers) != expected {
		h.logger.WarnWithFields("identifier count differs from advertised size", map[string]interface{}{
			"set":      set,
			"found":    len(headers),
			"expected": expected,
		})
	}

	pool := fetcher.NewPool(
		ctx,
		h.config.Harvest.Workers,
		h.client,
		h.storage,
		h.rateLimiter,
		h.logger,
	)
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			switch {
			case result.Skipped:
				stats.Skipped++
			case result.Success:
				stats.Fetched++
				h.tracker.IncrementFetched()
			default:
				stats.Failed++
				h.tracker.IncrementFailed()
			}
		}
	}()

	for _, header := range headers {
		if header.IsDeleted() {
			continue
		}
		if err := pool.Submit(fetcher.Job{Set: set, Identifier: header.Identifier}); err != nil {
			break
		}
	}

	pool.Stop()
	wg.Wait()

	return stats, nil
}

// HarvestBatches downloads records via paginated ListRecords responses,
// sequentially per set. Each record of a page is written as its own file.
// A page that exhausts its retries aborts the remainder of that set's
// pagination but not the run.
func (h *Harvester) HarvestBatches(ctx context.Context) error {
	sets, err := h.Sets(ctx)
	if err != nil {
		return err
	}

	h.logger.InfoWithFields("starting batch harvest", map[string]interface{}{
		"sets":     len(sets),
		"save_dir": h.storage.BaseDir(),
	})
	ui.PrintInfo("Sets to harvest", fmt.Sprintf("%d", len(sets)))

	for _, set := range sets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats := h.harvestSetBatched(ctx, set.Spec)
		h.logSetSummary(stats)
	}

	h.logger.InfoWithFields("batch harvest finished", map[string]interface{}{
		"total_fetched": h.tracker.TotalFetched,
		"total_failed":  h.tracker.TotalFailed,
		"elapsed":       h.tracker.Elapsed(),
	})
	return nil
}

// harvestSetBatched follows the ListRecords pagination of one set
func (h *Harvester) harvestSetBatched(ctx context.Context, set string) *SetStats {
	ui.PrintInfo("Processing set", set)

	stats := &SetStats{Set: set}
	var token string

	for {
		if !h.rateLimiter.Allow() {
			h.rateLimiter.Wait()
		}

		page, err := h.client.ListRecordsPage(ctx, set, token)
		if err != nil {
			// Give up on this set; the records of the remaining pages are
			// lost for this run. This mirrors the known gap of batch
			// harvesting: there is no per-record recovery inside a page.
			h.logger.ErrorWithFields("page fetch failed, abandoning set", map[string]interface{}{
				"set":     set,
				"fetched": stats.Fetched,
				"error":   err.Error(),
			})
			stats.Failed++
			h.tracker.IncrementFailed()
			return stats
		}

		for _, record := range page.Records {
			if record.Header.IsDeleted() {
				continue
			}
			if h.storage.IsSaved(set, record.Header.Identifier) {
				stats.Skipped++
				continue
			}
			if err := h.storage.SaveRecord(strings.NewReader(record.XML()), set, record.Header.Identifier); err != nil {
				h.logger.ErrorWithFields("failed to save record", map[string]interface{}{
					"set":        set,
					"identifier": record.Header.Identifier,
					"error":      err.Error(),
				})
				stats.Failed++
				h.tracker.IncrementFailed()
				continue
			}
			stats.Fetched++
			h.tracker.IncrementFetched()
		}

		if stats.Expected == 0 {
			stats.Expected = page.ResumptionToken.Size()
		}

		h.logger.InfoWithFields("page harvested", map[string]interface{}{
			"set":      set,
			"fetched":  stats.Fetched,
			"expected": stats.Expected,
		})

		if page.ResumptionToken.Empty() {
			return stats
		}
		token = page.ResumptionToken.Value
	}
}

// logSetSummary reports one set's outcome, flagging count mismatches
func (h *Harvester) logSetSummary(stats *SetStats) {
	h.logger.InfoWithFields("set finished", map[string]interface{}{
		"set":      stats.Set,
		"fetched":  stats.Fetched,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
		"expected": stats.Expected,
	})

	harvested := stats.Fetched + stats.Skipped
	if stats.Expected > 0 && harvested+stats.Failed != stats.Expected {
		h.logger.WarnWithFields("harvested count differs from advertised size", map[string]interface{}{
			"set":       stats.Set,
			"harvested": harvested,
			"expected":  stats.Expected,
		})
	}

	ui.PrintInfo(fmt.Sprintf("Set %s", stats.Set),
		fmt.Sprintf("%d fetched, %d skipped, %d failed", stats.Fetched, stats.Skipped, stats.Failed))
}
