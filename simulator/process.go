// Package simulator implements the operating-system simulator's core
// engine: PCB construction, the scheduler, the memory manager, the
// interrupt subsystem, the logging engine, and the simulation driver
// that ties them together.
package simulator

import (
	"fmt"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/metadata"
)

// State is one of the five states a simulated process moves through,
// per spec.md §3's lifecycle: NEW → READY → RUNNING ↔ BLOCKED → EXIT.
type State int

const (
	New State = iota
	Ready
	Running
	Blocked
	Exit
)

func (s State) String() string {
	switch s {
	case New:
		return "NEW"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Exit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Process is one simulated process control block (PCB).
//
// Ops is the head of the process's own, privately owned copy of its
// remaining op-code list; as ops complete they're popped from the front.
// The driver moves a process to Exit once Ops is nil or after a memory
// fault, so a faulted process exits with its unexecuted ops still
// attached, and a process whose last dev op was completed by an
// interrupt is Ready with a nil Ops until it is next scheduled.
type Process struct {
	PID   int
	State State
	Ops   *metadata.OpCode

	// ProcCycleRate and IOCycleTime are copied from the run's ConfigData
	// when the process is built. The scheduler and driver read the rates
	// from the ConfigData itself, not from these fields.
	ProcCycleRate int
	IOCycleTime   int

	// RemainingRunTime is a derived, not authoritative, cache recomputed
	// by the scheduler on demand (see runTime).
	RemainingRunTime int

	// interrupts is a non-owning back-reference to the run's shared
	// interrupt queue, installed once by Run.
	interrupts *InterruptQueue

	Next *Process
}

// BuildPCB walks the op-code stream starting after "sys start" and
// returns the head of the PCB list in pid-assignment (encounter) order.
//
// Each "app start"/"app end" pair delimits one process; the ops between
// them are copied into that process's privately owned list. "app
// start"/"app end" and the trailing "sys end" are not executable ops and
// are not copied into any process's list. A program with no application
// blocks returns a nil head and no error.
func BuildPCB(afterSysStart *metadata.OpCode, cfg *config.Data) (*Process, error) {
	var head, tail *Process
	var cur *Process
	var opTail *metadata.OpCode
	pid := 0

	for node := afterSysStart; node != nil; node = node.Next {
		switch {
		case node.Command == metadata.App && node.StrArg1 == "start":
			if cur != nil {
				return nil, fmt.Errorf("simulator: nested app blocks are not supported (pid %d still open)", cur.PID)
			}
			cur = &Process{
				PID:           pid,
				State:         New,
				ProcCycleRate: cfg.ProcCycleRate,
				IOCycleTime:   cfg.IOCycleRate,
			}
			pid++
			opTail = nil

		case node.Command == metadata.App && node.StrArg1 == "end":
			if cur == nil {
				return nil, fmt.Errorf("simulator: unmatched app end")
			}
			if head == nil {
				head = cur
			} else {
				tail.Next = cur
			}
			tail = cur
			cur = nil

		case node.Command == metadata.Sys && node.StrArg1 == "end":
			if cur != nil {
				return nil, fmt.Errorf("simulator: sys end reached with an unterminated app block (pid %d)", cur.PID)
			}

		default:
			if cur == nil {
				return nil, fmt.Errorf("simulator: op %v outside of an app start/end block", node.Command)
			}
			opCopy := &metadata.OpCode{
				Command: node.Command,
				InOut:   node.InOut,
				StrArg1: node.StrArg1,
				IntArg2: node.IntArg2,
				IntArg3: node.IntArg3,
			}
			if opTail == nil {
				cur.Ops = opCopy
			} else {
				opTail.Next = opCopy
			}
			opTail = opCopy
		}
	}

	return head, nil
}

// Count returns the number of processes in the PCB list starting at head.
func Count(head *Process) int {
	n := 0
	for p := head; p != nil; p = p.Next {
		n++
	}
	return n
}

// Find returns the process with the given pid, or nil if none matches.
func Find(head *Process, pid int) *Process {
	for p := head; p != nil; p = p.Next {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// AllExited reports whether every process in the list has reached Exit.
func AllExited(head *Process) bool {
	for p := head; p != nil; p = p.Next {
		if p.State != Exit {
			return false
		}
	}
	return true
}

// AllBlocked reports whether every non-exited process in the list is
// currently Blocked.
func AllBlocked(head *Process) bool {
	any := false
	for p := head; p != nil; p = p.Next {
		if p.State == Exit {
			continue
		}
		any = true
		if p.State != Blocked {
			return false
		}
	}
	return any
}

// PopOp discards the head of p's remaining op list, treating it as
// completed.
func (p *Process) PopOp() {
	if p.Ops != nil {
		p.Ops = p.Ops.Next
	}
}
