package simulator

import (
	"io"
	"strings"
	"testing"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/metadata"
	"github.com/E-Palms/ossim/simtime"
)

func runProgram(t *testing.T, text string, cfg *config.Data) []string {
	t.Helper()
	program, err := metadata.Parse(text)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	sink := NewSink(config.LogFile, simtime.New(), io.Discard)
	if err := Run(program, cfg, sink, nil); err != nil {
		t.Fatalf("unexpected Run error: %s", err)
	}
	return sink.Lines()
}

// containsInOrder reports whether each of substrs appears, in order (not
// necessarily contiguously), across the joined lines.
func containsInOrder(t *testing.T, lines []string, substrs []string) {
	t.Helper()
	joined := strings.Join(lines, "")
	pos := 0
	for _, s := range substrs {
		idx := strings.Index(joined[pos:], s)
		if idx < 0 {
			t.Fatalf("expected to find %q after position %d; full log:\n%s", s, pos, joined)
		}
		pos += idx + len(s)
	}
}

func TestScenarioSingleProcessFCFSN(t *testing.T) {
	cfg := &config.Data{
		CPUSchedCode: config.FCFSN,
		MemAvailable: 1024,
		ProcCycleRate: 10,
		IOCycleRate:   20,
	}
	lines := runProgram(t, "sys start; app start; cpu process (5); dev in keyboard (3); app end; sys end", cfg)

	containsInOrder(t, lines, []string{
		"Simulator Start",
		"Process 0 set from NEW to READY",
		"Process 0 selected with 110 ms remaining",
		"Process 0 set from READY to RUNNING",
		"cpu process operation start",
		"cpu process operation end",
		"keyboard input operation start",
		"keyboard input operation end",
		"Process 0 ended",
		"Process 0 set from RUNNING to EXIT",
		"System Stop",
		"Simulator End",
	})
}

func TestScenarioTwoProcessSJFN(t *testing.T) {
	cfg := &config.Data{
		CPUSchedCode:  config.SJFN,
		MemAvailable:  1024,
		ProcCycleRate: 1,
		IOCycleRate:   1,
	}
	// P0 totals 200ms (cpu 200 cycles), P1 totals 100ms (cpu 100 cycles).
	lines := runProgram(t,
		"sys start;"+
			"app start; cpu process (200); app end;"+
			"app start; cpu process (100); app end;"+
			"sys end", cfg)

	joined := strings.Join(lines, "")
	p1Selected := strings.Index(joined, "Process 1 selected")
	p0Selected := strings.Index(joined, "Process 0 selected")
	if p1Selected < 0 || p0Selected < 0 {
		t.Fatalf("expected both processes to be selected; full log:\n%s", joined)
	}
	if p1Selected > p0Selected {
		t.Fatalf("expected the shorter job (pid 1) to be selected first; full log:\n%s", joined)
	}
}

func TestScenarioRoundRobinQuantumPreemption(t *testing.T) {
	cfg := &config.Data{
		CPUSchedCode:  config.RRP,
		MemAvailable:  1024,
		ProcCycleRate: 1,
		IOCycleRate:   1,
		QuantumCycles: 3,
	}
	lines := runProgram(t, "sys start; app start; cpu process (10); app end; sys end", cfg)

	joined := strings.Join(lines, "")
	timeouts := strings.Count(joined, "quantum time out")
	if timeouts != 3 {
		t.Fatalf("quantum time out count = %d, want 3", timeouts)
	}
	if !strings.Contains(joined, "Process 0 ended") {
		t.Fatalf("expected the process to eventually complete; full log:\n%s", joined)
	}
}

func TestQuantumTimeoutAppliesToEveryPreemptivePolicy(t *testing.T) {
	for _, sched := range []config.SchedCode{config.SRTFP, config.FCFSP} {
		cfg := &config.Data{
			CPUSchedCode:  sched,
			MemAvailable:  1024,
			ProcCycleRate: 1,
			IOCycleRate:   1,
			QuantumCycles: 3,
		}
		lines := runProgram(t, "sys start; app start; cpu process (10); app end; sys end", cfg)

		joined := strings.Join(lines, "")
		timeouts := strings.Count(joined, "quantum time out")
		if timeouts != 3 {
			t.Fatalf("%v: quantum time out count = %d, want 3; full log:\n%s", sched, timeouts, joined)
		}
		if !strings.Contains(joined, "Process 0 ended") {
			t.Fatalf("%v: expected the process to eventually complete; full log:\n%s", sched, joined)
		}
	}
}

func TestScenarioMemorySegmentationFault(t *testing.T) {
	cfg := &config.Data{
		CPUSchedCode: config.FCFSN,
		MemAvailable: 1024,
	}
	lines := runProgram(t, "sys start; app start; mem access (0, 10); app end; sys end", cfg)

	containsInOrder(t, lines, []string{
		"failed mem access request",
		"Segmentation fault, Process 0 ended",
		"Process 0 set from RUNNING to EXIT",
	})
}

func TestScenarioAllBlockedIdle(t *testing.T) {
	cfg := &config.Data{
		CPUSchedCode: config.FCFSP,
		MemAvailable: 1024,
		IOCycleRate:  1,
	}
	lines := runProgram(t,
		"sys start;"+
			"app start; dev in keyboard (1); app end;"+
			"app start; dev in keyboard (1); app end;"+
			"sys end", cfg)

	containsInOrder(t, lines, []string{
		"CPU idle, all active processes blocked",
		"CPU interrupt, end idle",
	})
}

func TestScenarioOnlySysStartEnd(t *testing.T) {
	cfg := &config.Data{CPUSchedCode: config.FCFSN, MemAvailable: 1024}
	lines := runProgram(t, "sys start; sys end", cfg)

	containsInOrder(t, lines, []string{"Simulator Start", "System Stop", "Simulator End"})
	if len(lines) != 3 {
		t.Fatalf("expected exactly the 3 startup/shutdown lines, got %d: %v", len(lines), lines)
	}
}
