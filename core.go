package opensched

import "fmt"

// CoreRecord is the per-physical-core bookkeeping entry.
type CoreRecord struct {
	AssignedTask   Ttask
	AssignedThread Tthread
	IncludedInMask bool
}

// CoreTable owns every core record. It is the sole place core
// assignment and thread binding are mutated: no other component ever
// writes AssignedTask or AssignedThread directly.
type CoreTable struct {
	cores []CoreRecord
}

func NewCoreTable(mask []bool) *CoreTable {
	cores := make([]CoreRecord, len(mask))
	for i := range cores {
		cores[i] = CoreRecord{
			AssignedTask:   InvalidTask,
			AssignedThread: InvalidThread,
			IncludedInMask: mask[i],
		}
	}
	return &CoreTable{cores: cores}
}

func (ct *CoreTable) NumCores() int { return len(ct.cores) }

func (ct *CoreTable) Get(c Tcore) CoreRecord { return ct.cores[c] }

func (ct *CoreTable) IsFree(c Tcore) bool {
	return ct.cores[c].AssignedTask == InvalidTask
}

func (ct *CoreTable) IsAssignedToTask(c Tcore) bool {
	return ct.cores[c].AssignedTask != InvalidTask
}

func (ct *CoreTable) IsAssignedToThread(c Tcore) bool {
	return ct.cores[c].AssignedThread != InvalidThread
}

func (ct *CoreTable) NumFreeCores() int {
	n := 0
	for _, c := range ct.cores {
		if c.AssignedTask == InvalidTask {
			n++
		}
	}
	return n
}

// AssignTaskToCores commits a mapping decision: every core in cores gets
// AssignedTask = taskID. Callers (the admission engine) are responsible
// for not calling this with cores that are already assigned; the
// mapping policy only ever returns available cores.
func (ct *CoreTable) AssignTaskToCores(taskID Ttask, cores []Tcore) {
	for _, c := range cores {
		ct.cores[c].AssignedTask = taskID
	}
}

// ReleaseCoresOfTask frees every core currently assigned to taskID.
func (ct *CoreTable) ReleaseCoresOfTask(taskID Ttask) {
	for i := range ct.cores {
		if ct.cores[i].AssignedTask == taskID {
			ct.cores[i].AssignedTask = InvalidTask
		}
	}
}

// ReleaseThread clears AssignedThread on every core currently bound to
// threadID.
func (ct *CoreTable) ReleaseThread(threadID Tthread) {
	for i := range ct.cores {
		if ct.cores[i].AssignedThread == threadID {
			ct.cores[i].AssignedThread = InvalidThread
		}
	}
}

// BindThreadToOneCore picks the lowest-index core assigned to taskID
// that has no thread bound yet, and binds threadID there. It returns
// InvalidCore if no such core exists.
func (ct *CoreTable) BindThreadToOneCore(threadID Tthread, taskID Ttask) Tcore {
	for i := range ct.cores {
		if ct.cores[i].AssignedTask == taskID && ct.cores[i].AssignedThread == InvalidThread {
			ct.cores[i].AssignedThread = threadID
			return Tcore(i)
		}
	}
	return InvalidCore
}

func (ct *CoreTable) String() string {
	str := ""
	for i, c := range ct.cores {
		str += fmt.Sprintf("core %d: task=%d thread=%d masked=%v\n", i, c.AssignedTask, c.AssignedThread, c.IncludedInMask)
	}
	return str
}
