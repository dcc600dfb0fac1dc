package service

import (
	"context"
	"fmt"
	"time"

	"libfaq/crawler/internal/crawl"
	"libfaq/crawler/internal/domain"
	"libfaq/crawler/internal/menu"
	"libfaq/crawler/internal/repository"
	"libfaq/crawler/internal/state"

	"github.com/bwmarrin/snowflake"
	log "github.com/sirupsen/logrus"
)

const saveTimeout = 30 * time.Second

// MenuSource discovers the navigation entries of the site.
type MenuSource interface {
	Discover(ctx context.Context) ([]domain.MenuEntry, error)
}

// DetailCrawler turns menu entries into detail records.
type DetailCrawler interface {
	Run(ctx context.Context, seeds []domain.MenuEntry) *crawl.Result
}

var _ MenuSource = (*menu.Discoverer)(nil)
var _ DetailCrawler = (*crawl.Crawler)(nil)

type Service struct {
	menus        MenuSource
	crawler      DetailCrawler
	menuStore    repository.Store[domain.MenuEntry]
	detailStore  repository.Store[domain.DetailRecord]
	stateManager state.StateManager
	ids          *snowflake.Node
	deadline     time.Duration
}

func NewService(
	menus MenuSource,
	crawler DetailCrawler,
	menuStore repository.Store[domain.MenuEntry],
	detailStore repository.Store[domain.DetailRecord],
	stateManager state.StateManager,
	ids *snowflake.Node,
	deadline time.Duration,
) *Service {
	return &Service{
		menus:        menus,
		crawler:      crawler,
		menuStore:    menuStore,
		detailStore:  detailStore,
		stateManager: stateManager,
		ids:          ids,
		deadline:     deadline,
	}
}

// RunAll discovers the menu and crawls every page under it.
func (s *Service) RunAll(ctx context.Context) error {
	if err := s.RunMenu(ctx); err != nil {
		return err
	}
	return s.RunDetail(ctx)
}

// RunMenu discovers the menu and replaces the menu snapshot.
func (s *Service) RunMenu(ctx context.Context) error {
	summary := s.startRun(domain.SnapshotMenu)
	logger := log.WithField("run_id", summary.RunID)
	logger.Info("🧭 Discovering site menu...")

	entries, err := s.menus.Discover(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover menu: %w", err)
	}

	if err := s.menuStore.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to save menu entries: %w", err)
	}

	summary.Items = len(entries)
	s.finishRun(ctx, summary)
	logger.Infof("✅ Menu discovery finished with %d entries", len(entries))
	return nil
}

// RunDetail crawls the pages of the saved menu snapshot and replaces the
// detail snapshot. Records gathered before a deadline are still saved.
func (s *Service) RunDetail(ctx context.Context) error {
	summary := s.startRun(domain.SnapshotDetail)
	logger := log.WithField("run_id", summary.RunID)

	seeds, err := s.menuStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load menu entries: %w", err)
	}
	if len(seeds) == 0 {
		logger.Warn("⚠️ Menu snapshot is empty, nothing to crawl")
	}
	logger.Infof("🔄 Crawling details for %d menu entries", len(seeds))

	crawlCtx := ctx
	if s.deadline > 0 {
		var cancel context.CancelFunc
		crawlCtx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	result := s.crawler.Run(crawlCtx, seeds)
	if result.Interrupted {
		logger.Warnf("⏱️ Crawl interrupted, saving %d records gathered so far", len(result.Records))
	}

	// Partial results are saved even after the caller cancelled the run.
	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancelSave()

	if err := s.detailStore.Save(saveCtx, result.Records); err != nil {
		return fmt.Errorf("failed to save detail records: %w", err)
	}

	summary.Items = len(result.Records)
	summary.Failed = result.Failed
	summary.SkippedOffDomain = result.SkippedOffDomain
	summary.Truncated = result.Truncated
	s.finishRun(saveCtx, summary)
	return nil
}

// LastRuns returns the recorded summaries, skipping kinds that never ran.
func (s *Service) LastRuns(ctx context.Context) ([]state.RunSummary, error) {
	var runs []state.RunSummary
	for _, kind := range domain.SnapshotKinds {
		summary, err := s.stateManager.GetLastRun(ctx, kind)
		if err != nil {
			return nil, err
		}
		if summary != nil {
			runs = append(runs, *summary)
		}
	}
	return runs, nil
}

func (s *Service) startRun(kind domain.SnapshotKind) state.RunSummary {
	return state.RunSummary{
		RunID:     s.ids.Generate().String(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
	}
}

// finishRun records the summary. Failing to record it does not fail the run.
func (s *Service) finishRun(ctx context.Context, summary state.RunSummary) {
	summary.FinishedAt = time.Now().UTC()
	if err := s.stateManager.SetLastRun(ctx, summary); err != nil {
		log.Errorf("❌ Failed to record %s run %s: %v", summary.Kind, summary.RunID, err)
	}
}
