// Package config reads the simulator's ".cnf" configuration file into a
// [Data] value. It is the simulator's one external collaborator for
// configuration, matching the original reference implementation's
// getConfigData/displayConfigData pair, but is reimplemented here as an
// ordinary Go reader so the whole module builds standalone.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// SchedCode identifies one of the five CPU scheduling policies a
// simulation run can be configured with.
type SchedCode int

const (
	FCFSN SchedCode = iota
	SJFN
	SRTFP
	FCFSP
	RRP
)

func (c SchedCode) String() string {
	switch c {
	case FCFSN:
		return "FCFS_N"
	case SJFN:
		return "SJF_N"
	case SRTFP:
		return "SRTF_P"
	case FCFSP:
		return "FCFS_P"
	case RRP:
		return "RR_P"
	default:
		return "UNKNOWN"
	}
}

// Preemptive reports whether the policy preempts running processes, per
// spec.md's classification: SRTF_P, FCFS_P, and RR_P are preemptive; the
// rest are not.
func (c SchedCode) Preemptive() bool {
	switch c {
	case SRTFP, FCFSP, RRP:
		return true
	default:
		return false
	}
}

// LogToCode identifies the simulation's log destination(s).
type LogToCode int

const (
	LogMonitor LogToCode = iota
	LogFile
	LogBoth
)

func (c LogToCode) String() string {
	switch c {
	case LogMonitor:
		return "Monitor"
	case LogFile:
		return "File"
	case LogBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// IncludesFile reports whether the log destination writes to disk.
func (c LogToCode) IncludesFile() bool {
	return c == LogFile || c == LogBoth
}

// IncludesMonitor reports whether the log destination prints immediately.
func (c LogToCode) IncludesMonitor() bool {
	return c == LogMonitor || c == LogBoth
}

// Data is the parsed configuration for one simulation run, matching
// spec.md §3's ConfigData record.
type Data struct {
	Version          float64
	MetaDataFileName string
	LogToFileName    string
	CPUSchedCode     SchedCode
	QuantumCycles    int
	MemAvailable     int
	ProcCycleRate    int
	IOCycleRate      int
	MemDisplay       bool
	LogToCode        LogToCode
}

// MaxMemAvailable is the largest simulated address space the driver will
// accept, matching the original MEM_MAX constant.
const MaxMemAvailable = 102400

// Load reads and validates the configuration file at path.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %q: %w", path, err)
	}
	defer f.Close()

	d := &Data{}
	seen := map[string]bool{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripTrailingSpaces(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Start ") || strings.HasPrefix(line, "End ") {
			continue
		}

		leader, value, ok := splitLeader(line)
		if !ok {
			continue
		}

		if err := apply(d, leader, value, seen); err != nil {
			return nil, fmt.Errorf("config: %s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	if d.MetaDataFileName == "" {
		return nil, fmt.Errorf("config: %q: missing metadata file name", path)
	}
	return d, nil
}

func splitLeader(line string) (leader, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	leader = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return leader, value, true
}

func stripTrailingSpaces(s string) string {
	return strings.TrimRight(s, " \t\r")
}

func apply(d *Data, leader, value string, seen map[string]bool) error {
	seen[leader] = true
	switch leader {
	case "Version/Phase":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", value, err)
		}
		d.Version = v

	case "File Name":
		d.MetaDataFileName = value

	case "CPU Scheduling Code":
		code, err := parseSchedCode(value)
		if err != nil {
			return err
		}
		d.CPUSchedCode = code

	case "Quantum Time (cycles)":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid quantum cycles %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("quantum cycles out of range: %d", n)
		}
		d.QuantumCycles = n

	case "Memory Available (KB)":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid memory available %q: %w", value, err)
		}
		if n < 0 || n > MaxMemAvailable {
			return fmt.Errorf("memory available %d out of range [0, %d]", n, MaxMemAvailable)
		}
		d.MemAvailable = n

	case "Processor Cycle Time (msec)":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid processor cycle time %q: %w", value, err)
		}
		d.ProcCycleRate = n

	case "I/O Cycle Time (msec)":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid I/O cycle time %q: %w", value, err)
		}
		d.IOCycleRate = n

	case "Log To":
		code, err := parseLogToCode(value)
		if err != nil {
			return err
		}
		d.LogToCode = code

	case "Log File Name":
		d.LogToFileName = value

	case "Memory Display":
		d.MemDisplay = strings.EqualFold(value, "on") || strings.EqualFold(value, "true")
	}
	return nil
}

func parseSchedCode(value string) (SchedCode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "NONE", "FCFS_N", "FCFS-N", "FCFS":
		return FCFSN, nil
	case "SJF_N", "SJF-N", "SJF":
		return SJFN, nil
	case "SRTF_P", "SRTF-P", "SRTF":
		return SRTFP, nil
	case "FCFS_P", "FCFS-P":
		return FCFSP, nil
	case "RR_P", "RR-P", "RR":
		return RRP, nil
	default:
		return 0, fmt.Errorf("unrecognized CPU scheduling code %q", value)
	}
}

func parseLogToCode(value string) (LogToCode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "monitor":
		return LogMonitor, nil
	case "file":
		return LogFile, nil
	case "both":
		return LogBoth, nil
	default:
		return 0, fmt.Errorf("unrecognized log destination %q", value)
	}
}

// ResolveLogPath returns the path the log file should be written to. A
// relative LogToFileName is resolved against the user's XDG state
// directory instead of the current working directory, so repeated runs
// from different directories accumulate logs in one place.
func ResolveLogPath(d *Data) (string, error) {
	if d.LogToFileName == "" {
		return "", fmt.Errorf("config: log file name not set")
	}
	if filepath.IsAbs(d.LogToFileName) {
		return d.LogToFileName, nil
	}
	return xdg.StateFile(filepath.Join("ossim", d.LogToFileName))
}
