package opensched

import (
	"fmt"

	"github.com/markphelps/optional"
)

// TaskState is the single state tag a task carries: one enum tag rather
// than four independent booleans, so exactly one of the flag predicates
// below can ever be true.
type TaskState int

const (
	PendingArrival TaskState = iota
	InQueue
	Active
	Completed
)

func (s TaskState) String() string {
	switch s {
	case PendingArrival:
		return "PendingArrival"
	case InQueue:
		return "InQueue"
	case Active:
		return "Active"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Task is a single record in the dense task vector.
type Task struct {
	ID              Ttask
	Name            string
	CoreRequirement int
	ArrivalTime     Tns

	StartTime     optional.Int64
	DepartureTime optional.Int64

	state TaskState
}

func (t *Task) State() TaskState { return t.state }

func (t *Task) WaitingToSchedule() bool { return t.state == PendingArrival }
func (t *Task) WaitingInQueue() bool    { return t.state == InQueue }
func (t *Task) IsActive() bool          { return t.state == Active }
func (t *Task) IsCompleted() bool       { return t.state == Completed }

func (t *Task) String() string {
	start, hasStart := t.StartTime.Get()
	dep, hasDep := t.DepartureTime.Get()
	return fmt.Sprintf("task %d (%s) [%s] arr=%v start=%v(%v) dep=%v(%v) cores=%d",
		t.ID, t.Name, t.state, t.ArrivalTime, start, hasStart, dep, hasDep, t.CoreRequirement)
}

// TaskTable owns every task record for the life of the process. All
// mutation goes through it so the state-machine invariants hold after
// every call.
type TaskTable struct {
	tasks []*Task
}

// NewTaskTable builds the dense task vector from composition strings and
// already-computed per-task core requirements (see GenerateArrivalTimes for
// how arrival times are filled in). Task ids are assigned densely,
// 0..N-1, in array order, matching the source's traceinput/benchmarks
// parsing loop.
func NewTaskTable(names []string, requirements []int) *TaskTable {
	tasks := make([]*Task, len(names))
	for i, name := range names {
		tasks[i] = &Task{
			ID:              Ttask(i),
			Name:            name,
			CoreRequirement: requirements[i],
			state:           PendingArrival,
		}
	}
	return &TaskTable{tasks: tasks}
}

func (tt *TaskTable) N() int { return len(tt.tasks) }

func (tt *TaskTable) Get(id Ttask) *Task {
	if int(id) < 0 || int(id) >= len(tt.tasks) {
		return nil
	}
	return tt.tasks[id]
}

func (tt *TaskTable) All() []*Task { return tt.tasks }

func (tt *TaskTable) SetArrivalTime(id Ttask, t Tns) {
	tt.tasks[id].ArrivalTime = t
}

func (tt *TaskTable) numInState(s TaskState) int {
	n := 0
	for _, t := range tt.tasks {
		if t.state == s {
			n++
		}
	}
	return n
}

func (tt *TaskTable) NumPendingArrival() int { return tt.numInState(PendingArrival) }
func (tt *TaskTable) NumInQueue() int        { return tt.numInState(InQueue) }
func (tt *TaskTable) NumActive() int         { return tt.numInState(Active) }
func (tt *TaskTable) NumCompleted() int      { return tt.numInState(Completed) }

func (tt *TaskTable) SumCoreRequirementActive() int {
	sum := 0
	for _, t := range tt.tasks {
		if t.state == Active {
			sum += t.CoreRequirement
		}
	}
	return sum
}

// MarkInQueue performs the PendingArrival -> InQueue transition. It is
// idempotent: calling it on a task already in InQueue (or later) is a
// no-op, matching schedule()'s "transition to InQueue (idempotent)".
func (tt *TaskTable) MarkInQueue(id Ttask) {
	t := tt.tasks[id]
	if t.state == PendingArrival {
		t.state = InQueue
	}
}

// MarkActive performs the InQueue -> Active transition and records
// startTime.
func (tt *TaskTable) MarkActive(id Ttask, now Tns) {
	t := tt.tasks[id]
	t.StartTime = optional.NewInt64(int64(now))
	t.state = Active
}

// MarkCompleted performs the Active -> Completed transition and records
// departureTime.
func (tt *TaskTable) MarkCompleted(id Ttask, now Tns) {
	t := tt.tasks[id]
	t.DepartureTime = optional.NewInt64(int64(now))
	t.state = Completed
}

// FetchIntoQueue transitions every PendingArrival task whose arrivalTime
// has passed into InQueue.
func (tt *TaskTable) FetchIntoQueue(now Tns) {
	for _, t := range tt.tasks {
		if t.state == PendingArrival && t.ArrivalTime <= now {
			tt.MarkInQueue(t.ID)
		}
	}
}

// ResponseServiceWait returns (response, service, wait) time for a
// completed task, as emitted in the [Result] log line: response =
// departure - arrival, service = departure - start, wait = start -
// arrival.
func (t *Task) ResponseServiceWait() (response, service, wait Tns, ok bool) {
	dep, errDep := t.DepartureTime.Get()
	start, errStart := t.StartTime.Get()
	if errDep != nil || errStart != nil {
		return 0, 0, 0, false
	}
	departure := Tns(dep)
	started := Tns(start)
	return departure - t.ArrivalTime, departure - started, started - t.ArrivalTime, true
}

// AverageResponseTime computes the mean response time over all
// completed tasks, used for the final "[Result]" summary line. It
// delegates to gonum/stat.Mean rather than a hand-rolled loop.
func (tt *TaskTable) AverageResponseTime() float64 {
	vals := make([]float64, 0, len(tt.tasks))
	for _, t := range tt.tasks {
		if resp, _, _, ok := t.ResponseServiceWait(); ok {
			vals = append(vals, float64(resp))
		}
	}
	return gonumMean(vals)
}

// ShiftPendingArrivals decrements every PendingArrival task's
// arrivalTime by delta, used by the idle fast-forward path. Only
// PendingArrival tasks are touched, so relative arrival spacing is
// preserved across a fast-forward by construction.
func (tt *TaskTable) ShiftPendingArrivals(delta Tns) {
	for _, t := range tt.tasks {
		if t.state == PendingArrival {
			t.ArrivalTime -= delta
		}
	}
}

// MinPendingArrival returns the smallest arrivalTime among PendingArrival
// tasks, or (0, false) if there are none.
func (tt *TaskTable) MinPendingArrival() (Tns, bool) {
	var min Tns
	found := false
	for _, t := range tt.tasks {
		if t.state != PendingArrival {
			continue
		}
		if !found || t.ArrivalTime < min {
			min = t.ArrivalTime
			found = true
		}
	}
	return min, found
}
