package simulator

import (
	"fmt"
	"sync"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/metadata"
	"github.com/E-Palms/ossim/simtime"
)

// MemDumpFunc renders a memory-table snapshot after a memory operation,
// used only when the run's config requests memDisplay output; the
// driver never formats the table itself (spec.md §4.10 pushes that to
// the display layer to keep the engine free of presentation concerns).
type MemDumpFunc func(t *MemoryTable, result MemResult)

// Run executes one full simulation over program against cfg, logging
// every event through sink, per spec.md §4.7. program must be the head
// of a parsed metadata sequence beginning "sys start".
//
// dumpMem may be nil; when non-nil and cfg.MemDisplay is set and the
// log destination includes the monitor, it is invoked after every
// memory-table mutation (initialize, each mem op, deinitialize).
func Run(program *metadata.OpCode, cfg *config.Data, sink *Sink, dumpMem MemDumpFunc) error {
	if program == nil || program.Command != metadata.Sys || program.StrArg1 != "start" {
		return fmt.Errorf("simulator: metadata program must begin with sys start")
	}

	pcbHead, err := BuildPCB(program.Next, cfg)
	if err != nil {
		return fmt.Errorf("simulator: building process control blocks: %w", err)
	}

	n := Count(pcbHead)
	interrupts := NewInterruptQueue(n)
	for p := pcbHead; p != nil; p = p.Next {
		p.interrupts = interrupts
	}

	sink.LogEvent(EvSimStart, nil)

	for p := pcbHead; p != nil; p = p.Next {
		sink.LogStateChange(p, Ready)
		p.State = Ready
	}

	mem := NewMemoryTable(cfg.MemAvailable)
	maybeDumpMem(dumpMem, cfg, mem, MemInitialized)

	scheduler := NewScheduler()
	var quantumExpired bool
	var wg sync.WaitGroup
	preemptive := cfg.CPUSchedCode.Preemptive()

	for !AllExited(pcbHead) {
		if AllBlocked(pcbHead) {
			sink.LogIdle()
			pid := interrupts.WaitNonEmpty()
			sink.LogIdleEnd()
			ip := Find(pcbHead, pid)
			if ip != nil {
				sink.LogEvent(EvCPUInterrupt, ip)
				sink.LogStateChange(ip, Ready)
				interrupts.HandleInterrupt(ip)
			}
			continue
		}

		p := scheduler.NextProcess(pcbHead, cfg, &quantumExpired)
		if p == nil {
			break
		}
		if p.State == Ready {
			sink.LogProcessSelected(p)
			sink.LogStateChange(p, Running)
			p.State = Running
		}

		memFault := dispatchOp(pcbHead, p, cfg, mem, interrupts, sink, &wg, preemptive, &quantumExpired, dumpMem)

		if p.Ops == nil || memFault {
			sink.LogProcessEnded(p, memFault)
			mem.Deallocate(p.PID)
			maybeDumpMem(dumpMem, cfg, mem, MemDeallocated)
			sink.LogStateChange(p, Exit)
			p.State = Exit
		}
	}

	sink.LogEvent(EvSysStop, nil)
	mem.Deinitialize()
	maybeDumpMem(dumpMem, cfg, mem, MemDeinitialized)
	wg.Wait()
	sink.LogEvent(EvSimEnd, nil)
	return nil
}

func maybeDumpMem(dumpMem MemDumpFunc, cfg *config.Data, mem *MemoryTable, result MemResult) {
	if dumpMem != nil && cfg.MemDisplay && cfg.LogToCode.IncludesMonitor() {
		dumpMem(mem, result)
	}
}

// dispatchOp runs p's head op to completion or preemption and reports
// whether it ended with a terminal memory fault.
func dispatchOp(pcbHead, p *Process, cfg *config.Data, mem *MemoryTable, interrupts *InterruptQueue, sink *Sink, wg *sync.WaitGroup, preemptive bool, quantumExpired *bool, dumpMem MemDumpFunc) bool {
	op := p.Ops
	if op == nil {
		return false
	}

	switch op.Command {
	case metadata.CPU:
		dispatchCPU(pcbHead, p, cfg, interrupts, sink, preemptive, quantumExpired)
		return false
	case metadata.Dev:
		dispatchDev(p, cfg, interrupts, sink, wg, preemptive)
		return false
	case metadata.Mem:
		return dispatchMem(p, mem, sink, cfg, dumpMem)
	default:
		p.PopOp()
		return false
	}
}

// dispatchCPU runs p's current cpu op. Under a preemptive policy it
// advances one procCycleRate-duration cycle at a time, stopping early on
// a quantum expiry (when QuantumCycles is positive, under any preemptive
// policy) or on another process's interrupt becoming
// visible in the queue; under a non-preemptive policy it sleeps for the
// op's full duration.
func dispatchCPU(pcbHead, p *Process, cfg *config.Data, interrupts *InterruptQueue, sink *Sink, preemptive bool, quantumExpired *bool) {
	op := p.Ops
	sink.LogCPUOp(p.PID, PhaseStart)

	if !preemptive {
		simtime.Sleep(cfg.ProcCycleRate * op.IntArg2)
		sink.LogCPUOp(p.PID, PhaseEnd)
		p.PopOp()
		return
	}

	cyclesRun := 0
	for op.IntArg2 > 0 {
		simtime.Sleep(cfg.ProcCycleRate)
		op.IntArg2--
		cyclesRun++

		if cfg.QuantumCycles > 0 && cyclesRun >= cfg.QuantumCycles && op.IntArg2 > 0 {
			sink.LogCPUOp(p.PID, PhaseEnd)
			sink.LogEvent(EvCPUQuantum, p)
			*quantumExpired = true
			return
		}

		if interrupted := interrupts.First(); interrupted != emptySlot && op.IntArg2 > 0 {
			ip := Find(pcbHead, interrupted)
			if ip != nil {
				sink.LogCPUOp(p.PID, PhaseEnd)
				sink.LogEvent(EvCPUInterrupt, ip)
				sink.LogStateChange(ip, Ready)
				interrupts.HandleInterrupt(ip)
				return
			}
		}
	}

	sink.LogCPUOp(p.PID, PhaseEnd)
	p.PopOp()
}

// dispatchDev runs p's current dev op. Under a preemptive policy it
// blocks p and spawns a background I/O worker; under a non-preemptive
// policy it sleeps synchronously in place.
func dispatchDev(p *Process, cfg *config.Data, interrupts *InterruptQueue, sink *Sink, wg *sync.WaitGroup, preemptive bool) {
	op := p.Ops
	sink.LogDevOp(p.PID, op.StrArg1, string(op.InOut), PhaseStart)

	if preemptive {
		sink.LogEvent(EvBlockedIO, p)
		sink.LogStateChange(p, Blocked)
		p.State = Blocked
		SpawnIOWorker(wg, interrupts, p, cfg.IOCycleRate*op.IntArg2)
		return
	}

	simtime.Sleep(cfg.IOCycleRate * op.IntArg2)
	sink.LogDevOp(p.PID, op.StrArg1, string(op.InOut), PhaseEnd)
	p.PopOp()
}

// dispatchMem runs p's current mem op against the shared table and
// reports whether the result was a terminal failure.
func dispatchMem(p *Process, mem *MemoryTable, sink *Sink, cfg *config.Data, dumpMem MemDumpFunc) bool {
	op := p.Ops
	sink.LogMemRequest(p.PID, op.StrArg1, op.IntArg2, op.IntArg3)

	result, err := DispatchMemOp(mem, p.PID, op.StrArg1, op.IntArg2, op.IntArg3)
	if err != nil {
		result = AllocateFailure
	}
	sink.LogMemResult(p.PID, result)
	maybeDumpMem(dumpMem, cfg, mem, result)
	p.PopOp()
	return result.Failed()
}
