package batch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "icsfix/internal/log"
)

// cronLogger routes cron's own messages into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}

// Watch runs FixAll over paths once immediately and then on schedule
// until ctx is canceled. Every run starts with a fresh Registry; a run
// still in progress when the next one is due makes that one skip.
func (r *Runner) Watch(ctx context.Context, schedule string, paths []string) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	job := cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		r.FixAll(ctx, paths)
	})
	if _, err := c.AddJob(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	appLog.Info("watch started", "schedule", schedule, "paths", len(paths))
	job.Run()
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	appLog.Info("watch stopped")
	return nil
}
