package simulator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/simtime"
)

// OSEvent is one of the non-state-change OS-origin log events spec.md
// §4.6 enumerates, mirroring the original reference engine's osCode.
type OSEvent int

const (
	EvNone OSEvent = iota
	EvSimStart
	EvSimEnd
	EvSysStop
	EvCPUInterrupt
	EvBlockedIO
	EvCPUQuantum
)

// ProcessPhase distinguishes the start/end of a cpu or dev op for
// LogCPUOp/LogDevOp, mirroring the original engine's COMMAND_START and
// COMMAND_END cmdType values.
type ProcessPhase int

const (
	PhaseStart ProcessPhase = iota
	PhaseEnd
)

// Sink accumulates the run's log lines in order and optionally echoes
// them to a monitor writer as they're produced, per cfg's LogToCode
// (spec.md §4.6). It also tracks whether the previously emitted line
// was OS-origin, which governs the blank-line spacing the original
// engine inserts ahead of the next process-origin line.
type Sink struct {
	dest      config.LogToCode
	monitor   io.Writer
	timer     *simtime.Timer
	lines     []string
	lastMsgOS bool
}

// NewSink returns a Sink that laps elapsed time from timer and, when
// dest includes monitor output, writes to monitor (typically os.Stdout).
func NewSink(dest config.LogToCode, timer *simtime.Timer, monitor io.Writer) *Sink {
	if monitor == nil {
		monitor = os.Stdout
	}
	return &Sink{dest: dest, monitor: monitor, timer: timer}
}

// Lines returns every line recorded so far, in emission order.
func (s *Sink) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Sink) emit(line string) {
	s.lines = append(s.lines, line)
	if s.dest.IncludesMonitor() {
		fmt.Fprint(s.monitor, line)
	}
}

func stateName(st State) string {
	switch st {
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

// LogStateChange records a process's transition from its current state
// to to.
func (s *Sink) LogStateChange(p *Process, to State) {
	line := fmt.Sprintf("%s, OS: Process %d set from %s to %s\n",
		s.timer.Lap(), p.PID, stateName(p.State), stateName(to))
	s.emit(line)
	s.lastMsgOS = true
}

// LogProcessSelected records a process being dispatched onto the CPU,
// alongside its freshly recomputed remaining run time.
func (s *Sink) LogProcessSelected(p *Process) {
	line := fmt.Sprintf("%s, OS: Process %d selected with %d ms remaining\n",
		s.timer.Lap(), p.PID, p.RemainingRunTime)
	s.emit(line)
	s.lastMsgOS = true
}

// LogProcessEnded records a process's termination. segFault prefixes the
// line, matching the original engine's behavior when the termination was
// forced by a failed mem allocate/access.
func (s *Sink) LogProcessEnded(p *Process, segFault bool) {
	prefix := ""
	if segFault {
		prefix = "Segmentation fault, "
	}
	line := fmt.Sprintf("%s, OS: %sProcess %d ended\n", s.timer.Lap(), prefix, p.PID)
	s.emit(line)
	s.lastMsgOS = true
}

// LogEvent records one of the fixed, argument-free or process-scoped OS
// events (simulator start/end, system stop, cpu interrupt, blocked I/O,
// quantum timeout).
func (s *Sink) LogEvent(ev OSEvent, p *Process) {
	var body string
	switch ev {
	case EvSimStart:
		body = "Simulator Start\n"
	case EvSimEnd:
		body = "Simulator End\n"
	case EvSysStop:
		body = "System Stop\n"
	case EvCPUInterrupt:
		body = fmt.Sprintf("Interrupted by Process %d, %s %sput operation\n",
			p.PID, p.Ops.StrArg1, p.Ops.InOut)
	case EvBlockedIO:
		body = fmt.Sprintf("Process %d blocked for %sput operation\n", p.PID, p.Ops.InOut)
	case EvCPUQuantum:
		body = fmt.Sprintf("Process %d quantum time out, cpu process operation end\n", p.PID)
	default:
		return
	}
	s.emit(fmt.Sprintf("%s, OS: %s", s.timer.Lap(), body))
	s.lastMsgOS = true
}

// LogIdle records the driver entering its all-blocked idle wait.
func (s *Sink) LogIdle() {
	s.emit(fmt.Sprintf("%s, OS: CPU idle, all active processes blocked\n", s.timer.Lap()))
	s.lastMsgOS = true
}

// LogIdleEnd records the driver leaving its all-blocked idle wait.
func (s *Sink) LogIdleEnd() {
	s.emit(fmt.Sprintf("%s, OS: CPU interrupt, end idle\n", s.timer.Lap()))
	s.lastMsgOS = true
}

func (s *Sink) processPrefix(pid int) string {
	if s.lastMsgOS {
		return fmt.Sprintf("\n%s, Process: %d, ", s.timer.Lap(), pid)
	}
	return fmt.Sprintf("%s, Process: %d, ", s.timer.Lap(), pid)
}

// LogCPUOp records the start or end of a cpu process operation.
func (s *Sink) LogCPUOp(pid int, phase ProcessPhase) {
	body := "cpu process operation start\n"
	if phase == PhaseEnd {
		body = "cpu process operation end\n"
	}
	s.emit(s.processPrefix(pid) + body)
	s.lastMsgOS = false
}

// LogDevOp records the start or end of a device in/out operation.
func (s *Sink) LogDevOp(pid int, device, inOut string, phase ProcessPhase) {
	verb := "start"
	if phase == PhaseEnd {
		verb = "end"
	}
	body := fmt.Sprintf("%s %sput operation %s\n", device, inOut, verb)
	s.emit(s.processPrefix(pid) + body)
	s.lastMsgOS = false
}

// LogMemRequest records a mem allocate/access request before the table
// is consulted.
func (s *Sink) LogMemRequest(pid int, strArg1 string, base, requestedOffset int) {
	body := fmt.Sprintf("mem %s request (%d, %d)\n", strArg1, base, requestedOffset)
	s.emit(s.processPrefix(pid) + body)
	s.lastMsgOS = false
}

// LogMemResult records the table's verdict on a preceding mem request.
func (s *Sink) LogMemResult(pid int, result MemResult) {
	var body string
	switch result {
	case AllocateSuccess:
		body = "successful mem allocate request\n"
	case AllocateFailure:
		body = "failed mem allocate request\n"
	case AccessSuccess:
		body = "successful mem access request\n"
	case AccessFailure:
		body = "failed mem access request\n"
	default:
		return
	}
	s.emit(s.processPrefix(pid) + body)
	s.lastMsgOS = false
}

// WriteFile writes the run's header, body, and footer to path, matching
// the original reference engine's writeToFile layout.
func (s *Sink) WriteFile(path string, cfg *config.Data) error {
	if !s.dest.IncludesFile() {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("simulator: opening log file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString("==================================================\n")
	fmt.Fprintf(&b, "File Name                       : %s\n", cfg.MetaDataFileName)
	fmt.Fprintf(&b, "CPU Scheduling                  : %s\n", cfg.CPUSchedCode)
	fmt.Fprintf(&b, "Quantum Cycles                  : %d\n", cfg.QuantumCycles)
	fmt.Fprintf(&b, "Memory Available (KB)           : %d\n", cfg.MemAvailable)
	fmt.Fprintf(&b, "Processor Cycle Rate (ms/cycle) : %d\n", cfg.ProcCycleRate)
	fmt.Fprintf(&b, "I/O Cycle Rate (ms/cycle)       : %d\n", cfg.IOCycleRate)
	b.WriteString("================\n")
	for _, line := range s.lines {
		b.WriteString(line)
	}
	b.WriteString("\nEnd Simulation - Complete\n")
	b.WriteString("=========================\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("simulator: writing log file: %w", err)
	}
	return nil
}
