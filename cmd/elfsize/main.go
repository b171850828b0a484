package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/probonopd/elfsize/internal/helpers"
	"github.com/probonopd/elfsize/internal/payload"
	"github.com/probonopd/elfsize/pkg/elfsize"
)

// https://blog.kowalczyk.info/article/vEja/embedding-build-number-in-go-executable.html
// The build script needs to set, e.g.,
// go build -ldflags "-X main.commit=$GITHUB_RUN_NUMBER"
var commit string

func newApp(stdout, stderr io.Writer) *cli.App {
	version := commit
	if version == "" {
		version = "unsupported custom build"
	}

	return &cli.App{
		Name:            "elfsize",
		Usage:           "Print the size of an ELF file in bytes based on the information in its headers",
		UsageText:       "elfsize [options] FILE",
		Version:         version,
		Copyright:       "MIT License",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log the header values the size is calculated from",
			},
			&cli.BoolFlag{
				Name:    "payload",
				Aliases: []string{"p"},
				Usage:   "Describe the data appended after the ELF object",
			},
			&cli.StringFlag{
				Name:    "digest",
				Aliases: []string{"d"},
				Usage:   "Print the digest of the ELF object (sha256, sha512, sha3-256, blake2b-256)",
			},
			&cli.StringSliceFlag{
				Name:    "skip-section",
				Aliases: []string{"s"},
				Usage:   "Hash the named section as zeros when calculating the digest",
				Value:   cli.NewStringSlice(helpers.SignatureSections...),
			},
			&cli.StringFlag{
				Name:  "section",
				Usage: "Print the contents of the named ELF section",
			},
		},
		Action: run,
	}
}

// run is the command line entrypoint. It prints the size and, depending on
// the flags, more information about the file.
func run(c *cli.Context) error {
	setupLogging(c.App.ErrWriter, c.Bool("verbose"))

	if c.NArg() != 1 {
		fmt.Fprintln(c.App.ErrWriter, "Usage:", c.App.UsageText)
		return cli.Exit("", 1)
	}
	path := helpers.PathFromArg(c.Args().First())

	l, err := elfsize.InspectFile(path)
	if err != nil {
		return fail(c, path, err)
	}
	log.Println("elfsize: class:", l.Class, "data:", l.Data)
	log.Println("elfsize: shoff:", l.Shoff, "shentsize:", l.Shentsize, "shnum:", l.Shnum)
	log.Println("elfsize: last section offset:", l.LastSectionOffset, "size:", l.LastSectionSize)
	log.Println("elfsize: section header table end:", l.SectionTableEnd, "last section end:", l.LastSectionEnd)
	log.Println("elfsize: offset:", l.Size, path)

	// Nothing is printed unless every requested step succeeds.
	var out bytes.Buffer
	fmt.Fprintln(&out, l.Size)

	if name := c.String("section"); name != "" {
		data, err := helpers.GetSectionData(path, name)
		if err != nil {
			return fail(c, path, err)
		}
		fmt.Fprintf(&out, "%s %q\n", name, bytes.TrimRight(data, "\x00"))
	}

	if c.IsSet("digest") {
		algorithm := c.String("digest")
		if algorithm == "" {
			algorithm = "sha256"
		}
		d, err := helpers.CalculateDigest(path, algorithm, c.StringSlice("skip-section"))
		if err != nil {
			return fail(c, path, err)
		}
		fmt.Fprintln(&out, algorithm, d)
	}

	if c.Bool("payload") {
		p, err := payload.Inspect(path)
		if err != nil {
			return fail(c, path, err)
		}
		fmt.Fprintln(&out, "payload", p.Kind, "offset", p.Offset, "length", p.Length)
		for _, e := range p.Entries {
			fmt.Fprintln(&out, "  "+e)
		}
		helpers.LogError("payload", p.Err)
	}

	_, err = out.WriteTo(c.App.Writer)
	return err
}

func fail(c *cli.Context, path string, err error) error {
	helpers.FprintError(c.App.ErrWriter, path, err)
	return cli.Exit("", 1)
}

// setupLogging sends log output to w when verbose is set and discards it
// otherwise. Timestamps are only added when w is not a terminal.
func setupLogging(w io.Writer, verbose bool) {
	log.SetFlags(log.LstdFlags)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		log.SetFlags(0)
	}
	if !verbose {
		w = io.Discard
	}
	log.SetOutput(w)
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		helpers.PrintError("elfsize", err)
		os.Exit(1)
	}
}
