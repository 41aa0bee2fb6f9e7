// Package preview renders quicklook PNGs of BoM grid files.
package preview

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/gruppe-adler/bomber/internal/grid"
	"github.com/gruppe-adler/bomber/internal/report"
	"github.com/gruppe-adler/bomber/internal/validate"
)

var errUsage = errors.New("missing required flags")

// Run is the preview subcommand's entrypoint
func Run(flagSet *flag.FlagSet) {
	err := run(flagSet, os.Args[2:], os.Stdout, clockwork.NewRealClock())
	if errors.Is(err, errUsage) {
		flagSet.PrintDefaults()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(flagSet *flag.FlagSet, args []string, out io.Writer, clock clockwork.Clock) error {
	outputPtr := flagSet.String("out", "", "Path to output directory")
	inputPtr := flagSet.String("in", "", "Path to BoM grid file (may be gzipped)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		return errUsage
	}

	// make sure given output directory is a valid directory
	if err := validate.Directory(*outputPtr); err != nil {
		return err
	}
	if err := validate.GridFile(*inputPtr); err != nil {
		return err
	}

	rep := report.New(out, clock)
	rep.Done("Validated input file")

	var g grid.Grid
	err := rep.Step("Loading grid", "Loaded grid", func() (err error) {
		g, err = grid.Read(*inputPtr)
		return err
	})
	if err != nil {
		return err
	}

	var paths []string
	err = rep.Step("Building preview images", "Built preview images", func() (err error) {
		paths, err = WriteAll(Render(g), *outputPtr)
		return err
	})
	if err != nil {
		return err
	}
	rep.Info("Wrote %d images", len(paths))

	rep.Finish()
	return nil
}
