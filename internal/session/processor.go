// Package session orchestrates one import: parse, normalize, suggest, and
// duplicate-check rows concurrently, then route review decisions back into
// the learning store.
package session

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/dupdetect"
	"github.com/sift-money/sift/internal/learn"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/normalize"
	"github.com/sift-money/sift/internal/parser"
	"github.com/sift-money/sift/internal/service"
	"github.com/sift-money/sift/internal/suggest"
)

// Config wires a processor's collaborators. Everything is injected; the
// processor holds no hidden state, so parallel sessions are safe.
type Config struct {
	Parser     *parser.Parser
	Normalizer *normalize.Normalizer
	Engine     *suggest.Engine
	Detector   *dupdetect.Detector
	Feedback   *learn.Store
	Storage    service.Storage
	Workers    int
}

// Processor runs import sessions end to end.
type Processor struct {
	parser     *parser.Parser
	normalizer *normalize.Normalizer
	engine     *suggest.Engine
	detector   *dupdetect.Detector
	feedback   *learn.Store
	storage    service.Storage
	workers    int
}

// NewProcessor creates a session processor. Workers defaults to the number
// of CPUs; row processing is string matching, not I/O.
func NewProcessor(cfg Config) *Processor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Processor{
		parser:     cfg.Parser,
		normalizer: cfg.Normalizer,
		engine:     cfg.Engine,
		detector:   cfg.Detector,
		feedback:   cfg.Feedback,
		storage:    cfg.Storage,
		workers:    workers,
	}
}

// Run parses a blob and enriches every row. Rows are processed by a bounded
// worker pool; each row's pipeline has no dependency on sibling rows, and
// results keep the original row order for display. Row-level failures never
// abort the session; only an unreadable input does.
func (p *Processor) Run(ctx context.Context, blob []byte, format parser.Format, owner string) (*model.ImportSession, error) {
	parsed, err := p.parser.Parse(ctx, blob, format)
	if err != nil {
		return nil, err
	}

	// One read snapshot per session; the engine only reads rules while
	// rows are in flight.
	snapshot, err := p.loadSnapshot(ctx, owner)
	if err != nil {
		return nil, err
	}

	rows := parsed.Rows
	enriched := make([]*model.EnrichedTransaction, len(rows))
	rowDiags := make([]*parser.Diagnostic, len(rows))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				enriched[i], rowDiags[i] = p.processRow(ctx, rows[i], snapshot, owner)
			}
		}()
	}

feed:
	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// A cancelled session is simply discarded; nothing was persisted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := &model.ImportSession{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: time.Now(),
	}

	diagnostics := parsed.Diagnostics
	for _, d := range rowDiags {
		if d != nil {
			diagnostics = append(diagnostics, *d)
		}
	}
	sort.SliceStable(diagnostics, func(i, j int) bool { return diagnostics[i].Line < diagnostics[j].Line })
	for _, d := range diagnostics {
		session.Diagnostics = append(session.Diagnostics, d.String())
	}
	session.Stats.Rejected = len(diagnostics)

	index := 0
	for _, row := range enriched {
		if row == nil {
			continue
		}
		row.Index = index
		index++
		session.Rows = append(session.Rows, *row)

		session.Stats.Rows++
		if row.Duplicate != nil {
			session.Stats.Duplicates++
		}
		if row.Suggestion.LowConfidence() {
			session.Stats.LowConfidence++
		}
	}

	common.LogDebug("import session processed", common.Fields{
		"session":  session.ID,
		"rows":     session.Stats.Rows,
		"rejected": session.Stats.Rejected,
	})

	return session, nil
}

type snapshot struct {
	sc suggest.Context
}

func (p *Processor) loadSnapshot(ctx context.Context, owner string) (*snapshot, error) {
	rules, err := p.storage.ListActiveRules(ctx, owner)
	if err != nil {
		return nil, err
	}
	categories, err := p.storage.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := p.storage.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	return &snapshot{sc: suggest.Context{
		History:    p.storage,
		Owner:      owner,
		Rules:      rules,
		Categories: categories,
		Accounts:   accounts,
	}}, nil
}

// processRow runs normalize, suggest, and duplicate detection for one row.
func (p *Processor) processRow(ctx context.Context, row parser.Row, snap *snapshot, owner string) (*model.EnrichedTransaction, *parser.Diagnostic) {
	raw, diag := p.normalizer.Normalize(row)
	if diag != nil {
		return nil, diag
	}

	suggestion := p.engine.Suggest(ctx, *raw, snap.sc)
	duplicate := p.detector.FindDuplicates(ctx, *raw, owner)

	return &model.EnrichedTransaction{
		Raw:        *raw,
		Suggestion: suggestion,
		Status:     model.StatusPending,
		Duplicate:  duplicate,
	}, nil
}
