package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	pred "github.com/reoring/predicate"
	"github.com/reoring/predicate/checks"
	"github.com/reoring/predicate/i18n"
	"github.com/reoring/predicate/loader"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}
	sub := os.Args[1]
	switch sub {
	case "check":
		os.Exit(checkCmd(os.Args[2:], os.Stdout))
	case "list":
		listCmd(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(exitUsage)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "predicate CLI\n\nUsage:\n  predicate check -rules rules.yaml -input data.json [-o table|json|yaml] [-all] [-lang en|ja] [-log-level warn]\n  predicate list [-opt]\n\nNotes:\n  - check exits 0 when the input passes, 1 when it fails and 2 when the rules cannot be used.")
}

func checkCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var rulesPath, inputPath, format, lang, level, dup string
	var all, noColor bool
	var maxDepth int
	fs.StringVar(&rulesPath, "rules", "", "rules document (.yaml, .yml or .json)")
	fs.StringVar(&inputPath, "input", "", "input document (.json, .yaml or .yml)")
	fs.StringVar(&format, "o", "table", "report format: table, json, yaml")
	fs.BoolVar(&all, "all", false, "report every failing child of a conjunction")
	fs.StringVar(&lang, "lang", "en", "message language")
	fs.StringVar(&level, "log-level", "warn", "log level: error, warn, info, debug")
	fs.StringVar(&dup, "duplicates", "error", "duplicate key policy: error, warn, ignore")
	fs.IntVar(&maxDepth, "max-depth", 0, "maximum nesting depth of the documents (0: unlimited)")
	fs.BoolVar(&noColor, "no-color", false, "disable colored output")
	_ = fs.Parse(args)
	if rulesPath == "" || inputPath == "" {
		fs.Usage()
		return exitUsage
	}
	if format != "table" && format != "json" && format != "yaml" {
		fatalf("-o must be table, json or yaml")
	}

	log := pred.NewLogger(pred.ParseLogLevel(level), os.Stderr)
	i18n.SetLanguage(lang)
	policy, err := parseDuplicates(dup)
	if err != nil {
		fatalf("%v", err)
	}
	opts := loader.Options{Duplicates: policy, MaxDepth: maxDepth, Logger: log}

	cat := checks.Catalog()
	cat.SetLogger(log)
	doc, err := loader.RulesFile(cat, rulesPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rules: %v\n", err)
		return exitUsage
	}
	input, err := loader.InputFile(inputPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input: %v\n", err)
		return exitUsage
	}

	verr := doc.Validate(input, pred.ValidateOpt{CollectAll: all, Logger: log})
	rep := newReport(inputPath, verr)
	if rep.Error != "" {
		log.Errorf("%s", rep.Error)
	}
	var werr error
	switch format {
	case "json":
		werr = rep.writeJSON(stdout)
	case "yaml":
		werr = rep.writeYAML(stdout)
	default:
		rep.writeTable(stdout, !noColor && isTerminal(stdout))
	}
	if werr != nil {
		fatalf("write report: %v", werr)
	}
	switch {
	case rep.Error != "":
		return exitUsage
	case !rep.Valid:
		return exitInvalid
	default:
		return exitOK
	}
}

func listCmd(args []string, stdout io.Writer) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var withOpt bool
	fs.BoolVar(&withOpt, "opt", false, "include the generated optional siblings")
	_ = fs.Parse(args)

	cat := checks.Catalog()
	var rows [][]string
	for _, name := range cat.Names() {
		d, _ := cat.Lookup(name)
		if d.IsOptional() && !withOpt {
			continue
		}
		opt := ""
		if o := d.Optional(); o != nil {
			opt = o.Name()
		}
		rows = append(rows, []string{d.Name(), d.Signature(), opt})
	}
	writeColumns(stdout, []string{"NAME", "SIGNATURE", "OPTIONAL"}, rows)
}

func parseDuplicates(s string) (loader.DuplicatePolicy, error) {
	switch s {
	case "error", "":
		return loader.DuplicatesError, nil
	case "warn":
		return loader.DuplicatesWarn, nil
	case "ignore":
		return loader.DuplicatesIgnore, nil
	default:
		return 0, errors.New("-duplicates must be error, warn or ignore")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(exitUsage)
}
