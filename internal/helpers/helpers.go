package helpers

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.lsp.dev/uri"
)

// PrintError prints error, prefixed by a string that explains the context
func PrintError(context string, e error) {
	FprintError(os.Stderr, context, e)
}

// FprintError is like PrintError but writes to w
func FprintError(w io.Writer, context string, e error) {
	if e != nil {
		fmt.Fprintln(w, "ERROR "+context+": "+e.Error())
	}
}

// LogError logs error, prefixed by a string that explains the context
func LogError(context string, e error) {
	if e != nil {
		log.Println("ERROR " + context + ": " + e.Error())
	}
}

// PathFromArg returns the local path for a command line argument.
// File managers hand over file:// URIs, everything else is taken as a path.
func PathFromArg(arg string) string {
	if strings.HasPrefix(arg, "file://") {
		return uri.New(arg).Filename()
	}
	return arg
}
