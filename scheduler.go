package opensched

import (
	"fmt"
	"io"
	"strings"
)

// Scheduler is the top-level object the host simulator talks to. It
// composes the core-requirement profile, task table, core table,
// arrival generator output, queue discipline, mapping policy, the
// admission/dispatch engine, the pinned-core bridge, and the periodic
// tick driver. One Scheduler is constructed per simulation run and torn
// down with the host.
type Scheduler struct {
	host HostSimulator
	rec  *Recorder

	grid  Grid
	tasks *TaskTable
	cores *CoreTable

	queueDiscipline QueueDiscipline
	mappingPolicy   MappingPolicy
	pinned          *PinnedCore

	mappingEpoch Tns
	numTasks     int
	numCores     int

	lastNow Tns
}

// NewScheduler builds the scheduler straight out of Config and the
// host's reported topology, in the style of the source's SchedulerOpen
// constructor. It precomputes every task's core requirement and arrival
// time before returning. Config-file parsing remains out of scope; cfg
// is just the typed accessor boundary, built by hand in tests and in
// cmd/simdemo.
func NewScheduler(host HostSimulator, cfg Config, out io.Writer) (*Scheduler, error) {
	numCores := host.NumApplicationCores()
	grid, err := NewGrid(numCores)
	if err != nil {
		return nil, err
	}

	coreMask := make([]bool, numCores)
	for c := 0; c < numCores; c++ {
		coreMask[c] = cfg.GetBoolArray("scheduler/open/core_mask", c)
	}
	cores := NewCoreTable(coreMask)

	numTasks := cfg.GetInt("traceinput/num_apps")
	taskNames := ParseTaskNames(cfg.GetString("traceinput/benchmarks"), numTasks)

	requirements := make([]int, numTasks)
	for i, name := range taskNames {
		req, err := requirement(name)
		if err != nil {
			return nil, err
		}
		if req == 0 {
			return nil, &ConfigurationError{Msg: fmt.Sprintf("task %d (%s) has a forbidden (zero) core requirement", i, name)}
		}
		requirements[i] = req
	}
	tasks := NewTaskTable(taskNames, requirements)

	distribution, err := ParseDistribution(cfg.GetString("scheduler/open/distribution"))
	if err != nil {
		return nil, err
	}
	explicit := make([]int64, numTasks)
	for i := range explicit {
		explicit[i] = cfg.GetIntArray("scheduler/open/explicitArrivalTimes", i)
	}
	arrivalCfg := ArrivalConfig{
		Distribution:    distribution,
		ArrivalRate:     cfg.GetInt("scheduler/open/arrivalRate"),
		ArrivalInterval: int64(cfg.GetInt("scheduler/open/arrivalInterval")),
		ExplicitTimes:   explicit,
		Seed:            int64(cfg.GetInt("scheduler/open/distributionSeed")),
	}
	arrivalTimes, err := GenerateArrivalTimes(numTasks, arrivalCfg)
	if err != nil {
		return nil, err
	}

	rec := NewRecorder(out)
	for i, t := range arrivalTimes {
		tasks.SetArrivalTime(Ttask(i), t)
		rec.Info("Setting Arrival Time for Task %d (%s) to %v", i, taskNames[i], t)
	}

	queueDiscipline, err := ParseQueuePolicy(cfg.GetString("scheduler/open/queuePolicy"))
	if err != nil {
		return nil, err
	}

	rec.Info("Initializing mapping policy")
	mappingPolicy, err := ParseMappingPolicy(cfg.GetString("scheduler/open/logic"), grid.Rows, grid.Columns, cfg)
	if err != nil {
		return nil, err
	}

	quantum := Tns(cfg.GetInt("scheduler/pinned/quantum"))
	interleaving := cfg.GetInt("scheduler/pinned/interleaving")
	pinned := NewPinnedCore(host, quantum, interleaving, coreMask, out)

	s := &Scheduler{
		host:            host,
		rec:             rec,
		grid:            grid,
		tasks:           tasks,
		cores:           cores,
		queueDiscipline: queueDiscipline,
		mappingPolicy:   mappingPolicy,
		pinned:          pinned,
		mappingEpoch:    Tns(cfg.GetInt("scheduler/open/epoch")),
		numTasks:        numTasks,
		numCores:        numCores,
		lastNow:         -1,
	}
	return s, nil
}

// ParseTaskNames splits the "+"-joined traceinput/benchmarks string into
// one composition string per task.
func ParseTaskNames(benchmarks string, numTasks int) []string {
	parts := strings.Split(benchmarks, "+")
	names := make([]string, numTasks)
	for i := 0; i < numTasks; i++ {
		if i < len(parts) {
			names[i] = parts[i]
		}
	}
	return names
}

func (s *Scheduler) numFreeCores() int { return s.cores.NumFreeCores() }

func (s *Scheduler) ownerOf(threadID Tthread) Ttask {
	if int(threadID) < s.numTasks {
		return Ttask(threadID)
	}
	return s.host.ThreadAppID(threadID)
}

// schedule is the admission/dispatch primary operation.
func (s *Scheduler) schedule(taskID Ttask, isInitialCall bool, now Tns) bool {
	task := s.tasks.Get(taskID)
	s.rec.Event("Trying to schedule Task %d at Time %v", taskID, now)

	if task.WaitingToSchedule() && now < task.ArrivalTime {
		s.rec.Event("Task %d is not ready for execution.", taskID)
		return false
	}

	s.tasks.MarkInQueue(taskID)
	s.rec.Event("Task %d put into execution queue.", taskID)

	if s.queueDiscipline.HeadOfQueue(s.tasks) != taskID {
		s.rec.Event("Task %d is not in front of the queue.", taskID)
		return false
	}

	if s.numFreeCores() < task.CoreRequirement {
		s.rec.Event("Not enough free cores (%d) to schedule Task %d with core requirement %d", s.numFreeCores(), taskID, task.CoreRequirement)
		return false
	}

	cores := s.executeMappingPolicy(taskID)
	if len(cores) < task.CoreRequirement {
		s.rec.Event("Policy returned too few cores, mapping failed.")
		return false
	}

	for _, c := range cores {
		s.rec.Event("Assigning Core %d to Task %d", c, taskID)
	}
	s.cores.AssignTaskToCores(taskID, cores)

	if !isInitialCall {
		found := s.setAffinity(Tthread(taskID))
		s.rec.Event("Waking Task %d at core %d", taskID, found)
	}
	s.tasks.MarkActive(taskID, now)

	return true
}

// executeMappingPolicy builds the available/active masks and invokes
// the configured mapping policy. Neither mask construction nor the
// policy call mutates CoreTable or TaskTable.
func (s *Scheduler) executeMappingPolicy(taskID Ttask) []Tcore {
	task := s.tasks.Get(taskID)
	available := make([]bool, s.numCores)
	active := make([]bool, s.numCores)
	for c := 0; c < s.numCores; c++ {
		tc := Tcore(c)
		rec := s.cores.Get(tc)
		available[c] = rec.IncludedInMask && s.cores.IsFree(tc)
		active[c] = s.cores.IsAssignedToTask(tc)
	}
	return s.mappingPolicy.Map(task.Name, task.CoreRequirement, available, active)
}

// setAffinity finds the lowest-index core assigned to the thread's task
// that has no thread bound yet, binds the thread there on the core
// table, and sets its pinned-core affinity to that singleton core (or
// to the invalid-core singleton if none is available). This mirrors the
// source's setAffinity, which performs both the core table bind and the
// affinity set in one step.
func (s *Scheduler) setAffinity(threadID Tthread) Tcore {
	taskID := s.ownerOf(threadID)
	coreFound := s.cores.BindThreadToOneCore(threadID, taskID)
	if coreFound == InvalidCore {
		s.rec.Event("Setting Affinity for Thread %d from Task %d to Invalid Core ID", threadID, taskID)
		s.pinned.SetAffinity(InvalidThread, threadID, []Tcore{InvalidCore})
	} else {
		s.rec.Event("Setting Affinity for Thread %d from Task %d to Core %d", threadID, taskID, coreFound)
		s.pinned.SetAffinity(InvalidThread, threadID, []Tcore{coreFound})
	}
	return coreFound
}

// fetchTasksIntoQueue is the secondary admission operation.
func (s *Scheduler) fetchTasksIntoQueue(now Tns) {
	s.tasks.FetchIntoQueue(now)
}

// drainQueueOnce attempts to schedule the head of queue repeatedly,
// stopping at the first refusal.
func (s *Scheduler) drainQueueOnce(now Tns) {
	for {
		head := s.queueDiscipline.HeadOfQueue(s.tasks)
		if head == InvalidTask {
			return
		}
		if !s.schedule(head, false, now) {
			return
		}
	}
}

// ThreadCreate is called by the host when a thread is created, the
// exposed interface threadCreate. Thread ids 0..N-1 are the primary
// threads of tasks 0..N-1.
func (s *Scheduler) ThreadCreate(threadID Tthread) Tcore {
	now := s.host.GlobalClock()
	s.rec.Event("Trying to map Thread %d from Task %d at Time %v", threadID, s.ownerOf(threadID), now)

	if threadID == 0 {
		if !s.schedule(0, true, now) {
			fatal(s.rec.Out, &BootstrapError{Msg: "task 0 must be mapped for simulation to work"})
		}
	} else if int(threadID) > 0 && int(threadID) < s.numTasks {
		s.schedule(Ttask(threadID), true, now)
	}

	if !s.pinned.info(threadID).hasAffinity {
		s.pinned.SetInitialAffinity(threadID)
	}

	// The first thread's setAffinity call happens before
	// findFreeCoreForThread; preserve this order exactly. It is unclear
	// whether the ordering is load-bearing, so the source's order is
	// kept for compatibility.
	s.setAffinity(threadID)

	freeCoreID := s.pinned.findFreeCoreForThread(threadID)
	if freeCoreID != InvalidCore {
		s.pinned.PinRunning(threadID, freeCoreID)
		return freeCoreID
	}

	if int(threadID) >= s.numTasks {
		fatal(s.rec.Out, &PinningError{Msg: fmt.Sprintf("non-initial thread %d from task %d failed to get a core", threadID, s.ownerOf(threadID))})
	}
	s.rec.Event("Putting Thread %d from Task %d to sleep.", threadID, s.ownerOf(threadID))
	s.pinned.PinSleeping(threadID)
	return InvalidCore
}

// ThreadExit is called by the host when a thread exits.
func (s *Scheduler) ThreadExit(threadID Tthread, now Tns) {
	if running := s.pinned.CoreRunning(threadID); running != InvalidCore {
		s.pinned.Reschedule(now, running, false)
	}

	appID := s.ownerOf(threadID)
	s.rec.Event("Thread %d from Task %d Exiting at Time %v", threadID, appID, now)

	s.cores.ReleaseThread(threadID)
	s.rec.Event("Releasing Core from Thread %d", threadID)
	s.pinned.SetAffinity(InvalidThread, threadID, []Tcore{InvalidCore})

	if int(threadID) < s.numTasks {
		s.rec.Event("Task %d Finished.", appID)
		s.cores.ReleaseCoresOfTask(appID)
		s.rec.Event("Releasing all cores from Task %d", appID)
		s.tasks.MarkCompleted(appID, now)
		s.rec.RecordTaskCompletion(s.tasks.Get(appID))
	}

	s.idleFastForward(now)

	if s.tasks.NumCompleted() == s.numTasks {
		s.rec.Event("All tasks finished executing.")
		s.rec.RecordAverageResponseTime(s.tasks.AverageResponseTime())
	}
}

// idleFastForward handles the case where the grid has gone fully idle
// while tasks remain unarrived or queued: it dispatches the queue head,
// or shifts every PendingArrival task's arrival time so the next
// arrival happens "now". This prevents the host from deadlocking (no
// runnable threads) or terminating (no work) while leaving relative
// arrival spacing, and therefore response-time metrics, untouched.
func (s *Scheduler) idleFastForward(now Tns) {
	if s.cores.NumFreeCores() != s.numCores {
		return
	}
	if s.tasks.NumInQueue() == 0 && s.tasks.NumPendingArrival() == 0 {
		return
	}

	s.rec.Event("System going empty ... prefetching tasks")

	if s.tasks.NumInQueue() != 0 {
		s.rec.Event("Prefetching task from queue")
		head := s.queueDiscipline.HeadOfQueue(s.tasks)
		s.schedule(head, false, now)
		return
	}

	if s.tasks.NumPendingArrival() == 0 {
		return
	}

	nextArrival, ok := s.tasks.MinPendingArrival()
	if !ok || nextArrival == 0 {
		fatal(s.rec.Out, &InternalError{Msg: "nextArrivalTime == 0"})
	}

	timeJump := nextArrival - now
	s.rec.Event("Readjusting arrival time by %v", timeJump)
	s.tasks.ShiftPendingArrivals(timeJump)
	for _, t := range s.tasks.All() {
		if t.WaitingToSchedule() {
			s.rec.Event("New arrival time for Task %d set at %v", t.ID, t.ArrivalTime)
		}
	}

	s.fetchTasksIntoQueue(now)
	head := s.queueDiscipline.HeadOfQueue(s.tasks)
	s.schedule(head, false, now)
}

// crossedBoundary reports whether now has crossed an interval boundary
// since prev. Used instead of `now % interval == 0` because nothing
// guarantees the tick cadence divides either the 1ms status interval or
// the configured mapping epoch.
func crossedBoundary(prev, now, interval Tns) bool {
	if interval <= 0 {
		return false
	}
	return now/interval != prev/interval
}

// Periodic is the periodic tick driver. Within one call, operations
// occur in a fixed sequence: invariant check, queue fetch, dispatch
// drain, grid dump, per-core quantum update.
func (s *Scheduler) Periodic(now Tns) {
	if crossedBoundary(s.lastNow, now, 1_000_000) {
		s.checkInvariantsAndReportStatus(now)
	}

	if crossedBoundary(s.lastNow, now, s.mappingEpoch) {
		s.rec.Event("Scheduler invoked at %v", now)
		s.fetchTasksIntoQueue(now)
		s.drainQueueOnce(now)
		s.rec.Event("Current mapping:\n%s", s.grid.Dump(s.cores, s.host))
	}

	s.pinned.UpdateQuanta(now)
	s.lastNow = now
}

func (s *Scheduler) checkInvariantsAndReportStatus(now Tns) {
	active := s.tasks.NumActive()
	completed := s.tasks.NumCompleted()
	queued := s.tasks.NumInQueue()
	pending := s.tasks.NumPendingArrival()
	free := s.numFreeCores()
	activeReq := s.tasks.SumCoreRequirementActive()

	s.rec.RecordStatus(now, active, completed, queued, pending, free, activeReq, s.tasks.AverageResponseTime())

	if s.numCores-activeReq != free {
		fatal(s.rec.Out, &InvariantViolation{
			Msg: fmt.Sprintf("free cores (%d) + active task requirements (%d) != num cores (%d)", free, activeReq, s.numCores),
		})
	}
	if active+completed+queued+pending != s.numTasks {
		fatal(s.rec.Out, &InvariantViolation{Msg: "task state counts do not sum to N"})
	}
}

// Tasks exposes the task table for inspection in tests.
func (s *Scheduler) Tasks() *TaskTable { return s.tasks }

// Cores exposes the core table for inspection in tests.
func (s *Scheduler) Cores() *CoreTable { return s.cores }
