package main

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	k8syaml "sigs.k8s.io/yaml"

	pred "github.com/reoring/predicate"
)

type reportIssue struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Rule    string         `json:"rule,omitempty"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// report is the outcome of one check run.
type report struct {
	Input  string        `json:"input"`
	Valid  bool          `json:"valid"`
	Issues []reportIssue `json:"issues,omitempty"`
	// Error is set when the rules could not be evaluated against the input.
	Error string `json:"error,omitempty"`
}

func newReport(input string, err error) report {
	r := report{Input: input, Valid: err == nil}
	if err == nil {
		return r
	}
	iss, ok := pred.AsIssues(err)
	if !ok {
		r.Error = err.Error()
		return r
	}
	for _, it := range iss {
		r.Issues = append(r.Issues, reportIssue{
			Path:    it.Path,
			Code:    it.Code,
			Rule:    it.Rule,
			Message: it.Message,
			Params:  jsonSafe(it.Params),
		})
	}
	return r
}

// jsonSafe renders parameter values that have no JSON form (compiled
// patterns, predicates) as strings.
func jsonSafe(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch v.(type) {
		case nil, bool, string, float64, int, int64, json.Number, []any, map[string]any:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func (r report) writeJSON(w io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// writeYAML renders the same document as writeJSON, keyed by the JSON field
// names.
func (r report) writeYAML(w io.Writer) error {
	b, err := k8syaml.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

func (r report) writeTable(w io.Writer, color bool) {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}
	switch {
	case r.Error != "":
		fmt.Fprintf(w, "%s %s: %s\n", paint(colorRed, "ERROR"), r.Input, r.Error)
		return
	case r.Valid:
		fmt.Fprintf(w, "%s %s\n", paint(colorGreen, "OK"), r.Input)
		return
	}
	fmt.Fprintf(w, "%s %s (%d issues)\n", paint(colorRed, "FAIL"), r.Input, len(r.Issues))
	rows := make([][]string, len(r.Issues))
	for i, it := range r.Issues {
		rows[i] = []string{it.Path, it.Code, it.Rule, it.Message}
	}
	writeColumns(w, []string{"PATH", "CODE", "RULE", "MESSAGE"}, rows)
}

// writeColumns prints rows aligned by display width, so keys and messages in
// wide scripts line up.
func writeColumns(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	line := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	line(header)
	for _, row := range rows {
		line(row)
	}
}
