package listener

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"i14yimport/internal/config"
	"i14yimport/internal/connectors"
	"i14yimport/internal/logger"
	"i14yimport/internal/pipeline"
	"i14yimport/internal/storage"
)

const lastCycleKey = "listener.last_cycle"

// Service polls the configured mailbox and imports workbook attachments.
type Service struct {
	db            *storage.DB
	cfg           config.Config
	provider      string
	makeConnector func(cfg config.Config, provider string) (connectors.MailConnector, error)
	processor     *pipeline.MailProcessor
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	reportDir := ""
	if cfg.MailListenerAutoExport {
		reportDir = filepath.Join(cfg.OutputDir, "listener")
	}
	return &Service{
		db:            db,
		cfg:           cfg,
		provider:      strings.ToLower(strings.TrimSpace(cfg.MailListenerProvider)),
		makeConnector: connectors.New,
		processor:     pipeline.NewMailProcessor(db, pipeline.NewImporter(cfg, db), cfg, reportDir),
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	logger.Info("mail listener started provider=%s label=%s interval=%s", s.provider, s.cfg.MailListenerLabel, interval)

	for {
		if err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			logger.Error("listener cycle error: %v", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("mail listener stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

// RunCycle fetches new mail once and processes what is pending.
func (s *Service) RunCycle(ctx context.Context) error {
	mailConnector, err := s.makeConnector(s.cfg, s.provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	results, err := s.processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, s.provider)
	if err != nil {
		return err
	}

	datasets := 0
	for _, res := range results {
		for _, outcome := range res.Outcomes {
			datasets += outcome.SuccessCount
		}
	}

	if err := s.db.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.Warn("record listener cycle: %v", err)
	}
	logger.Info("listener cycle done provider=%s fetched=%d stored=%d processed=%d datasets=%d", s.provider, fetchResult.Fetched, fetchResult.Stored, len(results), datasets)
	return nil
}
