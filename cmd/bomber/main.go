// Command bomber converts Bureau of Meteorology grid files to GeoTIFF.
//
//	bomber geotiff -in rain.grid            writes rain.grid.geotiff
//	bomber preview -in rain.grid -out dir   writes PNG quicklooks into dir
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gruppe-adler/bomber/internal/convert"
	"github.com/gruppe-adler/bomber/internal/preview"
)

type command struct {
	name        string
	description string
	run         func(*flag.FlagSet)
}

var subCommands []command

func init() {
	subCommands = []command{
		{"geotiff", "Convert a BoM grid file to <file>.geotiff (EPSG:4326).", convert.Run},
		{"preview", "Render grayscale preview images of a BoM grid file.", preview.Run},
		{"help", "Print this message.", func(s *flag.FlagSet) { printUsage(os.Stdout) }},
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, "USAGE:\n    %s SUBCOMMAND -in <grid file> [FLAGS]\n\n", os.Args[0])
	fmt.Fprint(out, "SUBCOMMANDS:\n")

	for _, c := range subCommands {
		fmt.Fprintf(out, "%12s    %s\n", c.name, c.description)
	}

	fmt.Fprintf(out, "\nGrid files may be gzipped (.gz). Use -h after a SUBCOMMAND to list its flags.\n\n")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "\nERROR: No subcommand was provided.\n\n")
		printUsage(os.Stderr)
		os.Exit(1)
	}

	name := os.Args[1]
	for _, c := range subCommands {
		if c.name == name {
			c.run(flag.NewFlagSet(name, flag.ExitOnError))
			return
		}
	}

	fmt.Fprintf(os.Stderr, "\nERROR: Subcommand '%s' was not found.\n\n", name)
	printUsage(os.Stderr)
	os.Exit(1)
}
