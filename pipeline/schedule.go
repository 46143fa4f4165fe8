package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs the pipeline on a standard five-field cron expression (or a
// descriptor such as "@daily") until ctx is cancelled. A run still in
// progress when the next tick fires is skipped. Failed runs are logged and
// do not stop the schedule.
func (p *Pipeline) Schedule(ctx context.Context, spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("pipeline: invalid cron expression %q: %w", spec, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		report, err := p.Run(ctx)
		if err != nil {
			p.logger.Error("[schedule] Run %s failed: %v", report.RunID, err)
		}
	}))

	p.logger.Info("[schedule] Crawling on %q, next run at %s", spec,
		schedule.Next(p.now()).Format("2006-01-02 15:04"))
	c.Start()

	<-ctx.Done()
	p.logger.Info("[schedule] Stopping, waiting for the current run")
	<-c.Stop().Done()
	return nil
}
