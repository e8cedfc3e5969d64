// Command simdemo drives the open-workload scheduler against a FakeHost
// instead of a real cycle-level simulator, printing the same
// "[Scheduler] ..." log lines the host would normally see. It is a demo
// harness, not a benchmark runner: wiring a real host is out of scope.
package main

import (
	"fmt"
	"os"

	opensched "github.com/AnshikSahu/CoMeT"
)

// serviceTicks is how much simulated time, in ns, a task spends Active
// before it exits, standing in for the real computation a cycle-level
// simulator would run.
const serviceTicks = opensched.Tns(3_000_000) // 3ms, i.e. 3000 ticks of 1000ns

func main() {
	cfg := opensched.NewMapConfig()
	cfg.Ints["traceinput/num_apps"] = 6
	cfg.Strings["traceinput/benchmarks"] = "parsec-blackscholes-native-2+parsec-canneal-native-4+splash2-fft-native-1+parsec-swaptions-native-2+parsec-x264-native-1+splash2-barnes-native-3"
	cfg.Ints["scheduler/open/epoch"] = 1_000_000
	cfg.Strings["scheduler/open/queuePolicy"] = "FIFO"
	cfg.Strings["scheduler/open/logic"] = "first_unused"
	cfg.Strings["scheduler/open/distribution"] = "uniform"
	cfg.Ints["scheduler/open/arrivalRate"] = 2
	cfg.Ints["scheduler/open/arrivalInterval"] = 2_000_000
	cfg.Ints["scheduler/pinned/quantum"] = 500_000
	cfg.Ints["scheduler/pinned/interleaving"] = 1

	numCores := 9
	mask := make([]bool, numCores)
	for i := range mask {
		mask[i] = true
	}
	cfg.BoolArrays["scheduler/open/core_mask"] = mask

	host := opensched.NewFakeHost(numCores, mask)

	sched, err := opensched.NewScheduler(host, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	numTasks := sched.Tasks().N()
	for i := 0; i < numTasks; i++ {
		host.RegisterThread(opensched.Tthread(i), opensched.Ttask(i))
	}

	host.SetNow(0)
	for i := 0; i < numTasks; i++ {
		sched.ThreadCreate(opensched.Tthread(i))
	}

	remaining := make(map[opensched.Ttask]opensched.Tns, numTasks)
	running := make(map[opensched.Ttask]bool, numTasks)

	const tickSize = opensched.Tns(1000)
	for now := opensched.Tns(0); sched.Tasks().NumCompleted() < numTasks; now += tickSize {
		host.SetNow(now)
		sched.Periodic(now)

		for _, t := range sched.Tasks().All() {
			if !t.IsActive() {
				continue
			}
			if !running[t.ID] {
				running[t.ID] = true
				remaining[t.ID] = serviceTicks
				host.SetRunning(opensched.Tthread(t.ID), true)
			}
			remaining[t.ID] -= tickSize
			if remaining[t.ID] <= 0 {
				host.SetRunning(opensched.Tthread(t.ID), false)
				sched.ThreadExit(opensched.Tthread(t.ID), now)
				delete(running, t.ID)
			}
		}

		if now > 100_000_000 {
			fmt.Fprintln(os.Stderr, "simdemo: giving up after 100ms of simulated time")
			os.Exit(1)
		}
	}
}
