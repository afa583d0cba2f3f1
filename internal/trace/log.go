package trace

import (
	"context"
	"encoding/json"

	"agentplan/internal/logger"
)

// LogSink echoes entries at debug level
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Write(_ context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.log.Debug("trace %s", data)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
