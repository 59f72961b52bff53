// Package display renders the CLI's dump (-dc, -dm) and memory-table
// output, matching the original reference implementation's plain-text
// dumps now as tablewriter tables, with go-spew used for structural
// debugging output.
package display

import (
	"bytes"
	"fmt"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/metadata"
	"github.com/E-Palms/ossim/simulator"
	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
)

// ConfigTable renders cfg's fields as a tablewriter table.
func ConfigTable(cfg *config.Data) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"field", "value"})
	table.AppendBulk([][]string{
		{"Version", fmt.Sprintf("%v", cfg.Version)},
		{"Metadata File", cfg.MetaDataFileName},
		{"CPU Scheduling", cfg.CPUSchedCode.String()},
		{"Quantum Cycles", fmt.Sprintf("%d", cfg.QuantumCycles)},
		{"Memory Available (KB)", fmt.Sprintf("%d", cfg.MemAvailable)},
		{"Processor Cycle Rate (ms/cycle)", fmt.Sprintf("%d", cfg.ProcCycleRate)},
		{"I/O Cycle Rate (ms/cycle)", fmt.Sprintf("%d", cfg.IOCycleRate)},
		{"Memory Display", fmt.Sprintf("%v", cfg.MemDisplay)},
		{"Log To", cfg.LogToCode.String()},
		{"Log File", cfg.LogToFileName},
	})
	table.Render()
	return buf.Bytes()
}

// DumpConfig returns a go-spew structural dump of cfg, for -dc.
func DumpConfig(cfg *config.Data) string {
	return spew.Sdump(cfg)
}

// OpCodeTable renders the parsed op-code sequence headed by head as a
// tablewriter table, one row per op, for -dm.
func OpCodeTable(head *metadata.OpCode) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"command", "in/out", "str arg", "int arg 2", "int arg 3"})
	for op := head; op != nil; op = op.Next {
		table.Append([]string{
			string(op.Command),
			string(op.InOut),
			op.StrArg1,
			fmt.Sprintf("%d", op.IntArg2),
			fmt.Sprintf("%d", op.IntArg3),
		})
	}
	table.Render()
	return buf.Bytes()
}

// DumpOpCodeEnds returns a go-spew dump of the first and last op-code
// nodes in the sequence headed by head, for -dc combined with -dm.
func DumpOpCodeEnds(head *metadata.OpCode) string {
	if head == nil {
		return spew.Sdump(head)
	}
	tail := head
	for tail.Next != nil {
		tail = tail.Next
	}
	return spew.Sdump(head) + spew.Sdump(tail)
}

func memResultCaption(result simulator.MemResult) string {
	switch result {
	case simulator.MemInitialized:
		return "After memory initialization"
	case simulator.AllocateSuccess:
		return "After allocate success"
	case simulator.AllocateFailure:
		return "After allocate failure"
	case simulator.AccessSuccess:
		return "After access success"
	case simulator.AccessFailure:
		return "After access failure"
	case simulator.MemDeallocated:
		return "After clear process success"
	case simulator.MemDeinitialized:
		return "After clear all process success, no memory configured"
	default:
		return ""
	}
}

// MemoryTable renders a snapshot of t as a tablewriter table: one row
// per live record, using the original reference implementation's
// "Used"/"Open" labeling, plus a trailing "Open" row for the remaining
// free bytes (omitted after a deinitialize, when the table is empty and
// result is MemDeinitialized).
func MemoryTable(t *simulator.MemoryTable, result simulator.MemResult) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", memResultCaption(result))

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"base", "state", "owner", "range", "bytes"})

	records := t.Records()
	dispBase := 0
	for _, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", dispBase),
			"Used",
			fmt.Sprintf("P# %d", r.PID),
			fmt.Sprintf("%d-%d", r.Base, r.Base+r.Offset),
			fmt.Sprintf("%d", r.Offset),
		})
		dispBase += r.Offset + 1
	}

	if result != simulator.MemDeinitialized {
		table.Append([]string{
			fmt.Sprintf("%d", dispBase),
			"Open",
			"P#: x",
			"0-0",
			fmt.Sprintf("%d", t.Available()-dispBase),
		})
	}

	table.Render()
	return buf.Bytes()
}
