package connectors

import (
	"context"

	"i14yimport/internal/logger"
	"i14yimport/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		row, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		logger.Debug("stored mail id=%d provider=%s status=%s subject=%q", row.ID, row.Provider, row.Status, row.Subject)
		stored++
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
