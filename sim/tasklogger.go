package sim

import "github.com/sirupsen/logrus"

// A TaskLogger is a hook that logs every task dispatch and round boundary
// at debug level. Attach it to the scheduler to trace a run.
type TaskLogger struct {
	logger *logrus.Logger
}

// NewTaskLogger creates a TaskLogger writing to the given logger, or the
// standard logger when nil.
func NewTaskLogger(logger *logrus.Logger) *TaskLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TaskLogger{logger: logger}
}

// Func logs the hook site.
func (l *TaskLogger) Func(ctx HookCtx) {
	if !l.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	entry := l.logger.WithField("now", int64(ctx.Now))

	switch ctx.Pos {
	case HookPosBeforeTask:
		t := ctx.Item.(*Task)
		entry.WithFields(logrus.Fields{
			"target": t.Target(),
			"due":    int64(t.Due()),
			"seq":    t.seq,
		}).Debug("task dispatch")
	case HookPosRoundStart:
		entry.WithField("horizon", int64(ctx.Item.(SimulationTime))).
			Debug("round start")
	case HookPosRoundEnd:
		entry.Debug("round end")
	}
}
