package tasks

import "context"

// newVitalsRefreshTask creates the scheduled task that advances the simulated
// vital-signs snapshot shown in the monitor view.
func newVitalsRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "vitals_refresh")

	return func(ctx context.Context) error {
		vitals := deps.Controller.RefreshVitals()
		log.DebugContext(ctx, "Refreshed simulated vitals",
			"bp", vitals.BPSystolic, "hr", vitals.HeartRate, "spo2", vitals.SpO2)
		return nil
	}
}
