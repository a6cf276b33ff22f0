// Package pipeline implements the daily APOD ETL task graph: four
// dependent nodes (ensure-schema → extract → transform → load) run
// strictly sequentially for one logical date, each under a uniform
// bounded retry policy. Idempotency comes from the loader's
// upsert-by-date, not from skipping nodes: a rerun re-executes
// everything and converges to the same stored row.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/skyops/apodsync/pkg/archive"
	"github.com/skyops/apodsync/pkg/config"
	"github.com/skyops/apodsync/pkg/nasa"
	"github.com/skyops/apodsync/pkg/store"
)

// DateLayout is the wire format for logical dates.
const DateLayout = "2006-01-02"

// Pipeline wires the extractor, transformer, and loader into the
// four-node graph and applies the retry policy per node.
type Pipeline struct {
	log      logrus.FieldLogger
	cfg      *config.PipelineConfig
	client   nasa.Client
	store    store.Store
	archiver archive.Archiver
}

// New creates a pipeline. The store must already be started.
func New(
	log logrus.FieldLogger,
	cfg *config.PipelineConfig,
	client nasa.Client,
	st store.Store,
) *Pipeline {
	return &Pipeline{
		log:    log.WithField("component", "pipeline"),
		cfg:    cfg,
		client: client,
		store:  st,
	}
}

// AttachArchiver enables the optional post-load media archive step.
func (p *Pipeline) AttachArchiver(a archive.Archiver) {
	p.archiver = a
}

type node struct {
	name string
	fn   func(ctx context.Context) error
}

// Run executes the full graph for one logical date and returns the
// per-node report. Run never returns an error; failures are carried in
// the result so any scheduler can surface them.
func (p *Pipeline) Run(ctx context.Context, logicalDate string) *RunResult {
	result := &RunResult{
		RunID:       uuid.NewString(),
		LogicalDate: logicalDate,
		Status:      RunRunning,
		StartedAt:   time.Now().UTC(),
		Nodes: []NodeResult{
			{Name: NodeEnsureSchema, Status: NodePending},
			{Name: NodeExtract, Status: NodePending},
			{Name: NodeTransform, Status: NodePending},
			{Name: NodeLoad, Status: NodePending},
		},
	}

	log := p.log.WithFields(logrus.Fields{
		"run_id":       result.RunID,
		"logical_date": logicalDate,
	})

	if _, err := time.Parse(DateLayout, logicalDate); err != nil {
		result.Status = RunFailed
		result.Error = "invalid logical date: " + logicalDate
		result.FinishedAt = time.Now().UTC()

		p.markSkipped(result.Nodes)

		return result
	}

	// Node outputs flow left to right; each is the sole input of the
	// next and lives only inside this run.
	var (
		raw *nasa.APODResponse
		row *store.Entry
	)

	nodes := []node{
		{NodeEnsureSchema, func(ctx context.Context) error {
			return p.store.EnsureSchema(ctx)
		}},
		{NodeExtract, func(ctx context.Context) error {
			record, err := p.client.FetchAPOD(ctx, logicalDate)
			raw = record

			return err
		}},
		{NodeTransform, func(_ context.Context) error {
			entry, err := Transform(raw, logicalDate)
			row = entry

			return err
		}},
		{NodeLoad, func(ctx context.Context) error {
			loadCtx, cancel := context.WithTimeout(ctx, p.cfg.LoadTimeout)
			defer cancel()

			return p.store.UpsertEntry(loadCtx, row)
		}},
	}

	log.Info("Run started")

	for i := range nodes {
		// Cancellation is honored between node boundaries, never
		// mid-node, and is recorded rather than dropped.
		if err := ctx.Err(); err != nil {
			result.Status = RunCancelled
			result.Error = "run cancelled: " + err.Error()
			result.FinishedAt = time.Now().UTC()

			p.markSkipped(result.Nodes[i:])

			log.WithError(err).Warn("Run cancelled")

			return result
		}

		nodeResult := &result.Nodes[i]

		if err := p.runNode(ctx, log, nodeResult, nodes[i].fn); err != nil {
			nodeResult.Status = NodeFailedTerminal
			nodeResult.Error = err.Error()
			result.Status = RunFailed
			result.Error = nodes[i].name + ": " + err.Error()
			result.FinishedAt = time.Now().UTC()

			p.markSkipped(result.Nodes[i+1:])

			log.WithError(err).
				WithField("node", nodes[i].name).
				WithField("attempts", nodeResult.Attempts).
				Error("Run failed")

			return result
		}

		nodeResult.Status = NodeSucceeded
	}

	result.Status = RunSucceeded
	result.FinishedAt = time.Now().UTC()

	log.WithField("duration", result.FinishedAt.Sub(result.StartedAt)).
		Info("Run succeeded")

	// Post-success steps are observational and never fail the run.
	p.verify(ctx, log)
	p.archiveMedia(ctx, log, row)

	return result
}

// runNode executes one node under the retry policy: retryable errors
// are attempted up to MaxAttempts with a fixed delay; data errors and
// cancellation terminate on the first attempt.
func (p *Pipeline) runNode(
	ctx context.Context,
	log logrus.FieldLogger,
	nodeResult *NodeResult,
	fn func(ctx context.Context) error,
) error {
	nodeResult.Status = NodeRunning

	for attempt := 1; ; attempt++ {
		nodeResult.Attempts = attempt

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		if ctx.Err() != nil {
			return err
		}

		if attempt >= p.cfg.MaxAttempts {
			return err
		}

		nodeResult.Status = NodeRetrying

		log.WithError(err).WithFields(logrus.Fields{
			"node":    nodeResult.Name,
			"attempt": attempt,
			"delay":   p.cfg.RetryDelay.String(),
		}).Warn("Node failed, retrying")

		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			return err
		}

		nodeResult.Status = NodeRunning
	}
}

func (p *Pipeline) markSkipped(nodes []NodeResult) {
	for i := range nodes {
		if nodes[i].Status == NodePending {
			nodes[i].Status = NodeSkipped
		}
	}
}

// verify logs the table count and the latest stored entry after a
// successful load.
func (p *Pipeline) verify(ctx context.Context, log logrus.FieldLogger) {
	var (
		count  int64
		latest *store.Entry
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		count, err = p.store.CountEntries(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		latest, err = p.store.LatestEntry(gctx)

		return err
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Post-load verification failed")

		return
	}

	fields := logrus.Fields{"total_entries": count}
	if latest != nil {
		fields["latest_date"] = latest.Date
		fields["latest_title"] = latest.Title
	}

	log.WithFields(fields).Info("Post-load verification")
}

// archiveMedia mirrors the entry's media to the archive backend when
// one is attached. Only direct image URLs are mirrored; video entries
// point at embed pages.
func (p *Pipeline) archiveMedia(
	ctx context.Context, log logrus.FieldLogger, row *store.Entry,
) {
	if p.archiver == nil || row == nil ||
		row.MediaType != store.MediaTypeImage {
		return
	}

	key, err := p.archiver.ArchiveMedia(ctx, row.Date, row.MediaURL)
	if err != nil {
		log.WithError(err).Warn("Media archive failed")

		return
	}

	log.WithField("key", key).Info("Media archived")
}
