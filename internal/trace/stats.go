package trace

import (
	"fmt"
	"io"
	"text/tabwriter"

	"edfsched/internal/sched"
)

// WriteRunTimeStats writes one row per task with its busy ticks and share of
// elapsed time, followed by the aggregate CPU load. Untracked tasks show a
// dash instead of a busy figure.
func WriteRunTimeStats(w io.Writer, tasks []sched.TaskInfo, elapsed uint64, load float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Task\tState\tJobs\tMisses\tBusy\t%")
	for _, t := range tasks {
		busy, share := "-", "-"
		if t.Tag != sched.NoTag {
			busy = fmt.Sprint(t.BusyTicks)
			share = "<1%"
			if elapsed > 0 {
				if pct := t.BusyTicks * 100 / elapsed; pct > 0 {
					share = fmt.Sprintf("%d%%", pct)
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", t.Name, t.State, t.JobsCompleted, t.DeadlineMisses, busy, share)
	}
	fmt.Fprintf(tw, "CPU load\t\t\t\t\t%.2f%%\n", load)
	return tw.Flush()
}
