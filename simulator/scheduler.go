package simulator

import (
	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/metadata"
)

// Scheduler selects the next process to run under one of the five
// policies spec.md §4.2 describes. It carries the mutable state the
// original reference implementation kept in a function-local static
// (lastPrc) as ordinary struct fields instead, per spec.md §9's
// "sticky SJF_N scheduler state → explicit scheduler object" redesign
// note — this makes scheduling behavior independently testable.
type Scheduler struct {
	lastScheduled *Process
}

// NewScheduler returns a Scheduler with no scheduling history.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// NextProcess returns the process that should run next under cfg's
// configured policy, given the current PCB list headed by head.
//
// quantumExpired is both read and cleared: RR_P consumes a true value to
// decide whether to advance past the current incumbent, then resets it
// to false. Every other policy ignores it.
//
// If the returned process differs from whichever process was previously
// RUNNING, that previous process is demoted back to Ready before
// NextProcess returns, matching spec.md §4.2.
func (s *Scheduler) NextProcess(head *Process, cfg *config.Data, quantumExpired *bool) *Process {
	if head == nil {
		return nil
	}

	var scheduled *Process
	switch cfg.CPUSchedCode {
	case config.FCFSN:
		scheduled = firstNonExited(head)

	case config.FCFSP:
		scheduled = firstReadyOrRunning(head)

	case config.SJFN:
		if s.lastScheduled != nil && s.lastScheduled.State == Running {
			scheduled = s.lastScheduled
		} else {
			scheduled = s.shortestJob(head, cfg, Ready)
		}

	case config.SRTFP:
		scheduled = s.shortestJob(head, cfg, Ready, Running)

	case config.RRP:
		scheduled = s.roundRobin(head, quantumExpired)
	}

	if scheduled == nil {
		return nil
	}

	if s.lastScheduled != nil && s.lastScheduled.PID != scheduled.PID {
		if s.lastScheduled.State == Running {
			s.lastScheduled.State = Ready
		}
	}
	s.lastScheduled = scheduled
	scheduled.RemainingRunTime = runTime(scheduled, cfg)
	return scheduled
}

func firstNonExited(head *Process) *Process {
	for p := head; p != nil; p = p.Next {
		if p.State != Exit {
			return p
		}
	}
	return nil
}

func firstReadyOrRunning(head *Process) *Process {
	for p := head; p != nil; p = p.Next {
		if p.State == Ready || p.State == Running {
			return p
		}
	}
	return nil
}

// shortestJob picks the process with the minimum remaining run time
// among those in any of the given states, breaking ties by list order.
func (s *Scheduler) shortestJob(head *Process, cfg *config.Data, states ...State) *Process {
	var best *Process
	for p := head; p != nil; p = p.Next {
		if !in(p.State, states) {
			continue
		}
		p.RemainingRunTime = runTime(p, cfg)
		if best == nil || p.RemainingRunTime < best.RemainingRunTime {
			best = p
		}
	}
	return best
}

func in(s State, states []State) bool {
	for _, want := range states {
		if s == want {
			return true
		}
	}
	return false
}

// roundRobin advances the RR cursor: it keeps the incumbent scheduled
// unless the quantum expired or the incumbent is no longer Running, in
// which case it walks forward (wrapping) to the next Ready-or-Running
// process.
func (s *Scheduler) roundRobin(head *Process, quantumExpired *bool) *Process {
	if s.lastScheduled == nil {
		return head
	}
	if !*quantumExpired && s.lastScheduled.State == Running {
		return s.lastScheduled
	}

	*quantumExpired = false
	cur := Find(head, s.lastScheduled.PID)
	if cur == nil {
		cur = head
	}
	for {
		if cur.Next == nil {
			cur = head
		} else {
			cur = cur.Next
		}
		if cur.State == Ready || cur.State == Running {
			return cur
		}
	}
}

// runTime recomputes a process's total remaining simulated run time by
// summing procCycleRate*cycles for every remaining cpu op and
// ioCycleRate*cycles for every remaining dev op, per spec.md §4.2.
func runTime(p *Process, cfg *config.Data) int {
	total := 0
	for op := p.Ops; op != nil; op = op.Next {
		switch op.Command {
		case metadata.CPU:
			total += cfg.ProcCycleRate * op.IntArg2
		case metadata.Dev:
			total += cfg.IOCycleRate * op.IntArg2
		}
	}
	return total
}
