package telemetry

import "github.com/edaniels/golog"

// LogSink writes human-readable status lines. The heading logged is the
// command's true heading.
type LogSink struct {
	logger golog.Logger
}

// NewLogSink returns a sink logging through the given logger.
func NewLogSink(logger golog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs one snapshot.
func (s *LogSink) Publish(snap Snapshot) error {
	s.logger.Infof("front: %.1fcm left: %.1fcm right: %.1fcm -> %s (%.2f, %.2f)",
		snap.FrontCM, snap.LeftCM, snap.RightCM,
		snap.Heading, snap.LeftDuty, snap.RightDuty)
	return nil
}

// Close does nothing.
func (s *LogSink) Close() error {
	return nil
}
