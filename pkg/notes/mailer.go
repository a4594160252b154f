package notes

import (
	"context"
	"log/slog"
)

// LogMailer records the send-report trigger without delivering anything.
// Delivery itself is handled by an external system watching the audit log.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendReport(ctx context.Context) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("report email triggered")
	return nil
}
