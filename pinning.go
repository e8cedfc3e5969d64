package opensched

import (
	"fmt"
	"io"
)

// ThreadInfo is the per-thread affinity/running bookkeeping the pinned
// base owns: which cores the thread may run on, and which core (if any)
// it is currently running on.
type ThreadInfo struct {
	hasAffinity   bool
	affinityAnyOf map[Tcore]bool // nil means "no restriction, any core"
	coreRunning   Tcore
}

func newThreadInfo() *ThreadInfo {
	return &ThreadInfo{coreRunning: InvalidCore}
}

func (ti *ThreadInfo) HasAffinityFor(c Tcore) bool {
	if !ti.hasAffinity || ti.affinityAnyOf == nil {
		return true
	}
	return ti.affinityAnyOf[c]
}

// PinnedCore is the thread-to-core pinning and quantum bridge, composed
// into the scheduler rather than inherited from a base class. The
// scheduler calls its primitives; it never calls back into the
// scheduler.
type PinnedCore struct {
	host         HostSimulator
	out          io.Writer
	quantum      Tns
	interleaving int
	coreMask     []bool
	numCores     int

	nextCore Tcore

	threadInfo        map[Tthread]*ThreadInfo
	coreThreadRunning []Tthread // per core: thread currently pinned running there, or InvalidThread
	quantumLeft       []Tns
	lastPeriodic      Tns
}

func NewPinnedCore(host HostSimulator, quantum Tns, interleaving int, coreMask []bool, out io.Writer) *PinnedCore {
	n := len(coreMask)
	coreThreadRunning := make([]Tthread, n)
	quantumLeft := make([]Tns, n)
	for i := range coreThreadRunning {
		coreThreadRunning[i] = InvalidThread
	}
	return &PinnedCore{
		host:              host,
		out:               out,
		quantum:           quantum,
		interleaving:      interleaving,
		coreMask:          coreMask,
		numCores:          n,
		nextCore:          0,
		threadInfo:        make(map[Tthread]*ThreadInfo),
		coreThreadRunning: coreThreadRunning,
		quantumLeft:       quantumLeft,
	}
}

func (pc *PinnedCore) info(t Tthread) *ThreadInfo {
	ti, ok := pc.threadInfo[t]
	if !ok {
		ti = newThreadInfo()
		pc.threadInfo[t] = ti
	}
	return ti
}

// SetAffinity implements threadSetAffinity. A nil mask means
// "any core in the system". callingThread is the thread issuing the
// call (InvalidThread if it is the scheduler itself, e.g. at thread
// creation).
func (pc *PinnedCore) SetAffinity(callingThread, threadID Tthread, mask []Tcore) {
	ti := pc.info(threadID)
	ti.hasAffinity = true

	if mask == nil {
		ti.affinityAnyOf = nil // unrestricted
	} else {
		ti.affinityAnyOf = make(map[Tcore]bool, len(mask))
		for _, c := range mask {
			ti.affinityAnyOf[c] = true
		}
	}

	if int(threadID) >= pc.host.NumThreads() {
		// Thread isn't created in the host yet; just record the intent.
		return
	}

	switch {
	case threadID == callingThread:
		pc.threadYield(threadID)
	case ti.coreRunning != InvalidCore && !ti.HasAffinityFor(ti.coreRunning):
		// Running somewhere it's no longer allowed to be; preempt at the
		// next safe point by zeroing its remaining quantum.
		pc.quantumLeft[ti.coreRunning] = 0
	case ti.coreRunning == InvalidCore && pc.host.ThreadState(threadID) == ThreadNotRunning:
		if free := pc.findFreeCoreForThread(threadID); free != InvalidCore {
			elapsed := pc.host.PerCoreElapsed(free)
			now := pc.host.GlobalClock()
			t := elapsed
			if now > t {
				t = now
			}
			pc.Reschedule(t, free, false)
		}
	}
}

func (pc *PinnedCore) threadYield(threadID Tthread) {
	ti := pc.info(threadID)
	if ti.coreRunning != InvalidCore {
		pc.Reschedule(pc.host.Now(), ti.coreRunning, false)
	}
}

// Reschedule releases whichever thread currently runs on core c and
// notifies the host that the core is up for rescheduling.
func (pc *PinnedCore) Reschedule(now Tns, c Tcore, wasQuantumExpiry bool) {
	pc.ClearCoreRunning(c)
	pc.host.Reschedule(now, c, wasQuantumExpiry)
}

// findFreeCoreForThread returns the first core the thread has affinity
// for that currently has no thread pinned running, or InvalidCore.
func (pc *PinnedCore) findFreeCoreForThread(threadID Tthread) Tcore {
	ti := pc.info(threadID)
	for c := 0; c < pc.numCores; c++ {
		tc := Tcore(c)
		if pc.coreThreadRunning[c] == InvalidThread && ti.HasAffinityFor(tc) {
			return tc
		}
	}
	return InvalidCore
}

// getNextCore walks the configured mask with the configured
// interleaving stride. On passing the last core it wraps to
// ((core mod numCores) + 1) mod interleaving, i.e. to the start of the
// next stride lane. When numCores is a multiple of the stride this
// visits every masked core once per revolution; otherwise some lanes
// are skipped (9 cores with stride 2 only ever visit even cores).
// Translated directly from scheduler_open.cc's getNextCore.
func (pc *PinnedCore) getNextCore(core Tcore) Tcore {
	for {
		core += Tcore(pc.interleaving)
		if int(core) >= pc.numCores {
			core %= Tcore(pc.numCores)
			core += 1
			core %= Tcore(pc.interleaving)
		}
		if pc.coreMask[core] {
			return core
		}
	}
}

// getFreeCore returns the first core, starting at first and following
// getNextCore, with no thread currently pinned running.
func (pc *PinnedCore) getFreeCore(first Tcore) Tcore {
	next := first
	for {
		if pc.coreThreadRunning[next] == InvalidThread {
			return next
		}
		next = pc.getNextCore(next)
		if next == first {
			return first
		}
	}
}

// SetInitialAffinity assigns a thread's first affinity via round-robin
// over m_next_core.
func (pc *PinnedCore) SetInitialAffinity(threadID Tthread) {
	coreID := pc.getFreeCore(pc.nextCore)
	pc.nextCore = pc.getNextCore(coreID)
	ti := pc.info(threadID)
	ti.hasAffinity = true
	ti.affinityAnyOf = map[Tcore]bool{coreID: true}
}

// PinRunning marks core c as now running threadID with a full quantum.
func (pc *PinnedCore) PinRunning(threadID Tthread, c Tcore) {
	ti := pc.info(threadID)
	ti.coreRunning = c
	pc.coreThreadRunning[c] = threadID
	pc.quantumLeft[c] = pc.quantum
}

// PinSleeping marks a thread as not running on any core (invalid-core
// sleep state), used when no free core is available for it.
func (pc *PinnedCore) PinSleeping(threadID Tthread) {
	pc.info(threadID).coreRunning = InvalidCore
}

// ClearCoreRunning releases whatever thread is pinned running on core c.
// c == InvalidCore is a harmless no-op.
func (pc *PinnedCore) ClearCoreRunning(c Tcore) {
	if c == InvalidCore {
		return
	}
	if t := pc.coreThreadRunning[c]; t != InvalidThread {
		if ti, ok := pc.threadInfo[t]; ok {
			ti.coreRunning = InvalidCore
		}
		pc.coreThreadRunning[c] = InvalidThread
	}
}

// CoreRunning returns which core, if any, threadID is currently pinned
// running on.
func (pc *PinnedCore) CoreRunning(threadID Tthread) Tcore {
	return pc.info(threadID).coreRunning
}

// UpdateQuanta is the per-tick quantum accounting: for each core, if
// delta exceeds the remaining quantum or the core has no thread, rotate
// via reschedule; otherwise decrement the remaining quantum by delta.
func (pc *PinnedCore) UpdateQuanta(now Tns) {
	delta := now - pc.lastPeriodic
	for c := 0; c < pc.numCores; c++ {
		tc := Tcore(c)
		if delta > pc.quantumLeft[c] || pc.coreThreadRunning[c] == InvalidThread {
			pc.host.Reschedule(now, tc, true)
		} else {
			pc.quantumLeft[c] -= delta
		}
	}
	pc.lastPeriodic = now
}

func (pc *PinnedCore) String() string {
	return fmt.Sprintf("pinned-core: quantum=%v interleaving=%d nextCore=%d", pc.quantum, pc.interleaving, pc.nextCore)
}
