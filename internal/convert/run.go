package convert

import (
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/gruppe-adler/bomber/internal/footprint"
	"github.com/gruppe-adler/bomber/internal/report"
	"github.com/gruppe-adler/bomber/internal/validate"
)

var errUsage = errors.New("missing required flags")

// Run is the geotiff subcommand's entrypoint
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
	inputPtr := flagSet.String("in", "", "Path to BoM grid file (may be gzipped)")
	outputPtr := flagSet.String("out", "", "Path to output GeoTIFF (default: <in>"+OutputSuffix+")")
	footprintPtr := flagSet.Bool("footprint", false, "Also write a GeoJSON footprint next to the GeoTIFF")
	verbosePtr := flagSet.Bool("v", false, "Log debug output to stderr")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	// make sure the input flag is present
	if *inputPtr == "" {
		return errUsage
	}

	level := slog.LevelWarn
	if *verbosePtr {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rep := report.New(out, clock)

	if err := validate.GridFile(*inputPtr); err != nil {
		return err
	}
	if *outputPtr != "" {
		if err := validate.Directory(filepath.Dir(*outputPtr)); err != nil {
			return err
		}
	}
	rep.Done("Validated input file")

	opts := []Option{WithLogger(logger)}
	if *outputPtr != "" {
		opts = append(opts, WithOutputPath(*outputPtr))
	}

	var result *Result
	err := rep.Step("Converting grid to GeoTIFF", "Converted grid", func() (err error) {
		result, err = GridToGeoTIFF(*inputPtr, opts...)
		return err
	})
	if err != nil {
		return err
	}
	rep.Info("Wrote %dx%d raster to %s", result.Header.Ncols, result.Header.Nrows, result.OutputPath)

	if *footprintPtr {
		err := rep.Step("Writing footprint", "Wrote footprint", func() error {
			path, err := footprint.Write(result.OutputPath, result.Metadata)
			if err == nil {
				logger.Debug("wrote footprint", "path", path)
			}
			return err
		})
		if err != nil {
			return err
		}
	}

	rep.Finish()
	return nil
}
