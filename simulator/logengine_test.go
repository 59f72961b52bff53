package simulator

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/simtime"
)

func TestLogStateChangeFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(config.LogMonitor, simtime.New(), &buf)
	p := &Process{PID: 2, State: Ready}

	sink.LogStateChange(p, Running)

	line := buf.String()
	if !strings.Contains(line, "Process 2 set from READY to RUNNING") {
		t.Fatalf("line = %q, missing expected state change text", line)
	}
	if !strings.Contains(line, ", OS: ") {
		t.Fatalf("line = %q, want an OS origin marker", line)
	}
}

func TestLastMsgOSInsertsBlankLineBeforeProcessLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(config.LogMonitor, simtime.New(), &buf)
	p := &Process{PID: 0, State: Ready}

	sink.LogStateChange(p, Running)
	sink.LogCPUOp(0, PhaseStart)

	lines := sink.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 recorded lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "\n") {
		t.Fatalf("process line after an OS line should start with a blank line, got %q", lines[1])
	}
}

func TestNoBlankLineBetweenConsecutiveProcessLines(t *testing.T) {
	sink := NewSink(config.LogMonitor, simtime.New(), &bytes.Buffer{})
	sink.LogCPUOp(0, PhaseStart)
	sink.LogCPUOp(0, PhaseEnd)

	lines := sink.Lines()
	if strings.HasPrefix(lines[1], "\n") {
		t.Fatalf("second consecutive process line should not have a blank line prefix, got %q", lines[1])
	}
}

func TestSegFaultPrefixOnProcessEnded(t *testing.T) {
	sink := NewSink(config.LogFile, simtime.New(), &bytes.Buffer{})
	p := &Process{PID: 0}

	sink.LogProcessEnded(p, true)

	if !strings.Contains(sink.Lines()[0], "Segmentation fault, Process 0 ended") {
		t.Fatalf("line = %q, want segfault-prefixed ended message", sink.Lines()[0])
	}
}

func TestWriteFileIncludesHeaderAndFooter(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.lgf"

	sink := NewSink(config.LogFile, simtime.New(), &bytes.Buffer{})
	sink.LogEvent(EvSimStart, nil)

	cfg := &config.Data{
		MetaDataFileName: "sample.mdf",
		CPUSchedCode:     config.RRP,
		QuantumCycles:    4,
		MemAvailable:     2048,
		ProcCycleRate:    10,
		IOCycleRate:      20,
	}
	if err := sink.WriteFile(path, cfg); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed reading written log file: %s", err)
	}
	out := string(raw)
	if !strings.Contains(out, "File Name                       : sample.mdf") {
		t.Errorf("log file missing header; got:\n%s", out)
	}
	if !strings.Contains(out, "Simulator Start") {
		t.Errorf("log file missing recorded lines; got:\n%s", out)
	}
	if !strings.HasSuffix(out, "End Simulation - Complete\n=========================\n") {
		t.Errorf("log file missing footer; got:\n%s", out)
	}
}

func TestWriteFileSkippedWhenDestIsMonitorOnly(t *testing.T) {
	sink := NewSink(config.LogMonitor, simtime.New(), &bytes.Buffer{})
	if err := sink.WriteFile("/nonexistent/path/out.lgf", &config.Data{}); err != nil {
		t.Fatalf("WriteFile with a MONITOR-only destination should be a no-op, got error: %s", err)
	}
}
