package app

import (
	"context"
	"errors"
	"time"

	"recession-meter/internal/alerting"
)

// SimulateAlert 通过给定的分数跳变模拟一次告警流程。
func (a *App) SimulateAlert(ctx context.Context, country string, score, delta float64, dominant string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	note := alerting.Notification{
		Country:       country,
		Date:          time.Now().UTC(),
		Score:         score,
		Delta:         delta,
		ThresholdPts:  a.Config.Scoring.EventThreshold,
		Dominant:      dominant,
		Channels:      a.Config.Alerting.Channels,
		AdditionalMsg: "(simulated)",
	}

	return notifier.Notify(ctx, note)
}
