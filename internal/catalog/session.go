package catalog

import (
	"time"

	"go.uber.org/zap"
)

// Session is the per-run state owned by the orchestrator and handed to adapters.
type Session struct {
	RunID     string
	StartedAt time.Time
	Logger    *zap.Logger
}

// NewSession builds a Session whose logger is tagged with the run id.
func NewSession(runID string, startedAt time.Time, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		RunID:     runID,
		StartedAt: startedAt,
		Logger:    logger.With(zap.String("run_id", runID)),
	}
}

// With returns a copy of the session whose logger carries extra fields.
func (s *Session) With(fields ...zap.Field) *Session {
	if s == nil {
		return NewSession("", time.Time{}, nil).With(fields...)
	}
	cp := *s
	cp.Logger = s.Logger.With(fields...)
	return &cp
}
