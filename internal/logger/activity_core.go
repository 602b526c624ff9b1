package logger

import (
	"github.com/cyphera/payment-alerts/internal/activitylog"
	"go.uber.org/zap/zapcore"
)

// activityCore copies log entries into the diagnostic ring buffer so the
// /logs endpoint mirrors what the process logs.
type activityCore struct {
	zapcore.LevelEnabler
	buf    *activitylog.Buffer
	fields []zapcore.Field
}

// NewActivityCore returns a zapcore.Core that appends every entry at or above
// minLevel to buf.
func NewActivityCore(buf *activitylog.Buffer, minLevel zapcore.Level) zapcore.Core {
	return &activityCore{LevelEnabler: minLevel, buf: buf}
}

func (c *activityCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &activityCore{
		LevelEnabler: c.LevelEnabler,
		buf:          c.buf,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *activityCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *activityCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	entry := activitylog.Entry{
		Timestamp: ent.Time.UTC(),
		Level:     ent.Level.String(),
		Message:   ent.Message,
	}
	if len(enc.Fields) > 0 {
		entry.Fields = enc.Fields
	}
	c.buf.Append(entry)
	return nil
}

func (c *activityCore) Sync() error {
	return nil
}
