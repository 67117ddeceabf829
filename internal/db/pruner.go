package db

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Pruner trims old job_history rows on a daily cadence. The retention
// window is read from the settings table on every pass so an API update
// takes effect without a restart.
type Pruner struct {
	defaultDays int
	interval    time.Duration
	stopCh      chan struct{}
	log         *zap.Logger
}

const retentionSettingKey = "history_retention_days"

func NewPruner(defaultDays int, log *zap.Logger) *Pruner {
	if defaultDays <= 0 {
		defaultDays = 90
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pruner{
		defaultDays: defaultDays,
		interval:    24 * time.Hour,
		stopCh:      make(chan struct{}),
		log:         log,
	}
}

func (p *Pruner) Start() {
	go p.run()
}

func (p *Pruner) Stop() {
	close(p.stopCh)
}

func (p *Pruner) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.RunOnce(context.Background())
		}
	}
}

func (p *Pruner) RunOnce(ctx context.Context) {
	days := p.defaultDays
	if setting, err := Settings.GetSetting(ctx, retentionSettingKey); err == nil {
		if v, err := strconv.Atoi(setting.Value); err == nil && v > 0 {
			days = v
		}
	}

	pruned, err := Jobs.PruneOlderThan(ctx, days)
	if err != nil {
		p.log.Error("history prune failed", zap.Error(err))
		return
	}
	if pruned > 0 {
		p.log.Info("pruned job history",
			zap.Int64("rows", pruned),
			zap.Int("retention_days", days),
		)
	}
}
