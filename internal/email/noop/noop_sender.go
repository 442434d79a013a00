package noop

import (
	"context"

	"go.uber.org/zap"

	"weddingplan/internal/logger"
	"weddingplan/internal/port"
)

type noopSender struct {
	log *zap.Logger
}

// NewNoopSender creates a no-op EmailSender that logs the summary instead of sending it.
func NewNoopSender(log *zap.Logger) port.EmailSender {
	return &noopSender{log: logger.OrNop(log)}
}

func (s *noopSender) SendImportSummary(_ context.Context, toEmail, toName string, summary port.ImportSummary) error {
	s.log.Info("[NOOP EMAIL] import summary",
		zap.String("to", toEmail),
		zap.String("name", toName),
		zap.String("session_id", summary.SessionID),
		zap.Strings("created", summary.Created),
		zap.Strings("updated", summary.Updated),
		zap.String("source_url", summary.SourceURL),
	)
	return nil
}
