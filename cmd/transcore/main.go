package main

/*------------------------------------------------------------------
 *
 * Purpose:	CLI front end for the translation-path planner: the
 *		"core show translation" family of diagnostics, driven by
 *		a YAML config of demo transcoders rather than real codec
 *		plugins.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	transcore "github.com/kb3lfq/transcore/src"
)

const (
	recalcDefaultSeconds = 1
	recalcMaxSeconds     = 1000
)

func main() {
	configFile := pflag.StringP("config-file", "c", "", "YAML file listing demo transcoders to pre-register.")
	timestampFormat := pflag.StringP("timestamp-format", "T", "", "strftime format string for a diagnostic timestamp banner.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - translation-path planner diagnostics.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s [options] show [recalc [N] | paths <codec>]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *timestampFormat != "" {
		stamp, err := strftime.Format(*timestampFormat, time.Now())
		if err != nil {
			log.Warn("invalid timestamp format", "format", *timestampFormat, "err", err)
		} else {
			fmt.Fprintln(os.Stderr, stamp)
		}
	}

	reg := transcore.NewRegistry()
	if *configFile != "" {
		cfg, err := transcore.LoadConfig(*configFile)
		if err != nil {
			log.Fatal("failed to load config", "err", err)
		}
		transcoders, mod, err := transcore.BuildDemoTranscoders(cfg)
		if err != nil {
			log.Fatal("failed to build demo transcoders", "err", err)
		}
		for _, t := range transcoders {
			if err := reg.Register(t, mod); err != nil {
				log.Warn("failed to register demo transcoder", "name", t.Name, "err", err)
			}
		}
	}

	args := pflag.Args()
	if len(args) == 0 || args[0] != "show" {
		pflag.Usage()
		os.Exit(2)
	}

	switch {
	case len(args) == 1:
		printMatrix(reg)
	case args[1] == "recalc":
		seconds := recalcDefaultSeconds
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n < 1 {
				n = recalcDefaultSeconds
			}
			seconds = n
		}
		if seconds > recalcMaxSeconds {
			log.Warn("recalc seconds truncated", "requested", seconds, "used", recalcMaxSeconds)
			seconds = recalcMaxSeconds
		}
		reg.Recalc(seconds)
		printMatrix(reg)
	case args[1] == "paths":
		if len(args) < 3 {
			pflag.Usage()
			os.Exit(2)
		}
		printPaths(reg, args[2])
	default:
		pflag.Usage()
		os.Exit(2)
	}
}

// printMatrix renders the square cost matrix between every catalogued
// audio format: rows are source, columns are destination, unsupported
// cells show "-", and column width adapts to the longest name and the
// widest value actually present.
func printMatrix(reg *transcore.Registry) {
	formats := transcore.AudioFormats()

	width := 0
	for _, f := range formats {
		if n := len(transcore.FormatName(f)); n > width {
			width = n
		}
	}
	for _, src := range formats {
		for _, dst := range formats {
			if cost, ok := reg.CellCost(src, dst); ok {
				if n := len(strconv.Itoa(cost)); n > width {
					width = n
				}
			}
		}
	}

	fmt.Printf("%-*s", width+2, "")
	for _, dst := range formats {
		fmt.Printf(" %*s", width, transcore.FormatName(dst))
	}
	fmt.Println()

	for _, src := range formats {
		fmt.Printf("%-*s", width+2, transcore.FormatName(src))
		for _, dst := range formats {
			if cost, ok := reg.CellCost(src, dst); ok {
				fmt.Printf(" %*d", width, cost)
			} else {
				fmt.Printf(" %*s", width, "-")
			}
		}
		fmt.Println()
	}
}

// printPaths renders, for one codec, the rendered path (or
// "No Translation Path") to every other catalogued audio format.
func printPaths(reg *transcore.Registry, codecName string) {
	src, ok := transcore.LookupFormatByName(codecName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown codec: %s\n", codecName)
		os.Exit(2)
	}

	for _, dst := range transcore.AudioFormats() {
		if dst == src {
			continue
		}
		chain, err := reg.BuildPath(dst, src)
		if err != nil {
			fmt.Printf("%s: No Translation Path\n", transcore.FormatName(dst))
			continue
		}
		fmt.Printf("%s: %s\n", transcore.FormatName(dst), transcore.RenderPath(src, chain))
		transcore.FreePath(chain)
	}
}
