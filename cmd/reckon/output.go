package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// entry is one named outcome of an evaluation.
type entry struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func newEntry(name string, v float64, err error) entry {
	if err != nil {
		return entry{Name: name, Error: err.Error()}
	}
	// encoding/json has no representation for NaN and the infinities.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return entry{Name: name, Value: strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return entry{Name: name, Value: v}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printEntries writes entries in the selected format. Text output carries a
// header only when w is a terminal so that piped output stays parseable.
func (a *app) printEntries(w io.Writer, entries []entry) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if isTerminal(w) {
		fmt.Fprintln(tw, "NAME\tVALUE")
	}
	for _, e := range entries {
		switch {
		case e.Error != "":
			fmt.Fprintf(tw, "%s\terror: %s\n", e.Name, e.Error)
		default:
			fmt.Fprintf(tw, "%s\t%v\n", e.Name, e.Value)
		}
	}
	return tw.Flush()
}
