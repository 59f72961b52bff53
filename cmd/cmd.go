// Package cmd implements the ossim command-line front end: a single
// cobra command accepting -dc/-dm/-rs switches plus a trailing
// configuration-file (.cnf) path.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/E-Palms/ossim/config"
	"github.com/E-Palms/ossim/display"
	"github.com/E-Palms/ossim/metadata"
	"github.com/E-Palms/ossim/simulator"
	"github.com/E-Palms/ossim/simtime"
	"github.com/spf13/cobra"
)

const (
	dumpConfigFlag   = "dc"
	dumpMetadataFlag = "dm"
	runSimFlag       = "rs"
)

var ossimCmd = &cobra.Command{
	Use:   "ossim [-dc] [-dm] [-rs] <config.cnf>",
	Short: "Simulates an operating system's process scheduling, memory, and I/O.",
	Run:   runOssim,
}

func init() {
	ossimCmd.Flags().Bool(dumpConfigFlag, false, "Dump the parsed configuration file.")
	ossimCmd.Flags().Bool(dumpMetadataFlag, false, "Dump the parsed metadata (op-code) file.")
	ossimCmd.Flags().Bool(runSimFlag, false, "Run the simulator.")
}

// NewRootCommand builds the ossim cobra command.
func NewRootCommand() *cobra.Command {
	return ossimCmd
}

// NormalizeArgs upgrades single-dash long flags (-dc, -dm, -rs) to the
// double-dash form pflag requires, matching the reference CLI's looser
// single-dash switches without reimplementing pflag's parser.
func NormalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch a {
		case "-dc", "-dm", "-rs":
			out[i] = "-" + a
		default:
			out[i] = a
		}
	}
	return out
}

func runOssim(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	dc, _ := fs.GetBool(dumpConfigFlag)
	dm, _ := fs.GetBool(dumpMetadataFlag)
	rs, _ := fs.GetBool(runSimFlag)

	if (!dc && !dm && !rs) || len(args) == 0 || !strings.HasSuffix(args[0], ".cnf") {
		cmd.Usage()
		return
	}

	cfg, err := config.Load(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if dc {
		fmt.Println(display.DumpConfig(cfg))
		fmt.Printf("%s", display.ConfigTable(cfg))
	}

	if !dm && !rs {
		return
	}

	program, err := metadata.Load(cfg.MetaDataFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if dm {
		if dc {
			fmt.Println(display.DumpOpCodeEnds(program))
		}
		fmt.Printf("%s", display.OpCodeTable(program))
	}

	if !rs {
		return
	}

	runSimulation(cfg, program)
}

func runSimulation(cfg *config.Data, program *metadata.OpCode) {
	timer := simtime.New()
	sink := simulator.NewSink(cfg.LogToCode, timer, os.Stdout)

	dumpMem := func(t *simulator.MemoryTable, result simulator.MemResult) {
		fmt.Printf("%s", display.MemoryTable(t, result))
	}

	if err := simulator.Run(program, cfg, sink, dumpMem); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if cfg.LogToCode.IncludesFile() {
		logPath, err := config.ResolveLogPath(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if err := sink.WriteFile(logPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
