package opensched

import (
	"fmt"
	"io"
)

// Recorder is the scheduler's logging/metrics sink. It reproduces the
// exact "[Scheduler] ..." stdout contract against Out, and optionally
// mirrors one structured row per completed task to CSV (status lines
// are not mirrored), the same shape as
// the scattered logWrite(CREATED_PROCS, ...) calls in gs.go/lb.go,
// generalized into one reusable type instead of package-level globals.
type Recorder struct {
	Out io.Writer
	CSV io.Writer // optional; nil disables structured rows
}

func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{Out: out}
}

func (r *Recorder) logf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

func (r *Recorder) Info(format string, args ...any) {
	r.logf("\n[Scheduler] [Info]: "+format+"\n", args...)
}

func (r *Recorder) Event(format string, args ...any) {
	r.logf("\n[Scheduler]: "+format+"\n", args...)
}

func (r *Recorder) Result(format string, args ...any) {
	r.logf("\n[Scheduler][Result]: "+format+"\n", args...)
}

func (r *Recorder) csvRow(kind string, fields ...any) {
	if r.CSV == nil {
		return
	}
	row := kind
	for _, f := range fields {
		row += fmt.Sprintf(",%v", f)
	}
	fmt.Fprintln(r.CSV, row)
}

// RecordTaskCompletion writes the per-task [Result] line and, if a CSV
// sink is configured, an accompanying structured row.
func (r *Recorder) RecordTaskCompletion(t *Task) {
	response, service, wait, ok := t.ResponseServiceWait()
	if !ok {
		return
	}
	r.Result("Task %d (Response/Service/Wait) Time (ns) :\t%d\t%d\t%d", t.ID, response, service, wait)
	r.csvRow("task_done", t.ID, t.Name, response, service, wait)
}

// RecordAverageResponseTime writes the final summary line.
func (r *Recorder) RecordAverageResponseTime(avgNS float64) {
	r.Result("Average Response Time (ns) :\t%.0f", avgNS)
}

// RecordStatus writes the periodic 1ms status line together with a
// running mean of completed response times.
func (r *Recorder) RecordStatus(now Tns, active, completed, queued, pending, free, activeReq int, meanResponse float64) {
	r.Event("Time %v [Active Tasks = %d | Completed Tasks = %d | Queued Tasks = %d | Non-Queued Tasks = %d | Free Cores = %d | Active Tasks Requirements = %d | Mean Response So Far (ns) = %.0f]",
		now, active, completed, queued, pending, free, activeReq, meanResponse)
}
