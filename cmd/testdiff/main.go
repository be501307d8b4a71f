// testdiff is a thin command-line front end over pkg/engine. It is not
// itself part of the change-detection engine — a real host (a pytest
// plugin, a CI step) embeds pkg/engine directly — but every repo in
// this corpus ships an executable entry point, so this one exists to
// exercise the three orchestrator operations from a shell.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/PaulM5406/pytest-diff/pkg/common/config"
	"github.com/PaulM5406/pytest-diff/pkg/engine"
)

const usageText = `
Usage: testdiff [-config path] <command> [arguments...]

Commands:
  baseline                      fingerprint every scoped file and save it as the baseline
  detect                        run the three-tier change detector against the baseline
  coverage <test> <file> <json> process coverage data for one test run

coverage reads a JSON object mapping filename -> []line from the json
argument (a literal JSON string, or "-" to read it from standard input),
and records the test's reduced fingerprint set against that file.
`

func showUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("testdiff", flag.ContinueOnError)
	fs.Usage = showUsage
	configPath := fs.String("config", "", "path to a testdiff.yaml config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		showUsage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: loading config: %v\n", err)
		return 1
	}

	e, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: %v\n", err)
		return 1
	}
	defer func() { _ = e.Close() }()

	switch rest[0] {
	case "baseline":
		return runBaseline(e)
	case "detect":
		return runDetect(e)
	case "coverage":
		return runCoverage(e, rest[1:])
	case "-h", "--help", "help":
		showUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "testdiff: unknown command %q\n", rest[0])
		showUsage()
		return 2
	}
}

func runBaseline(e *engine.Engine) int {
	if err := e.SaveBaseline(); err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: saving baseline: %v\n", err)
		return 1
	}
	return 0
}

func runDetect(e *engine.Engine) int {
	changed, err := e.DetectChanges()
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: detecting changes: %v\n", err)
		return 1
	}
	out, err := json.MarshalIndent(changed, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: encoding result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func runCoverage(e *engine.Engine, args []string) int {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "testdiff: coverage requires <test> <file> <json>")
		return 2
	}
	testName, testFile, src := args[0], args[1], args[2]

	raw := []byte(src)
	if src == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "testdiff: reading coverage data: %v\n", err)
			return 1
		}
		raw = data
	}

	var coverageData map[string][]int
	if err := json.Unmarshal(raw, &coverageData); err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: parsing coverage data: %v\n", err)
		return 2
	}

	reduced, err := e.ProcessCoverageData(testName, testFile, coverageData, 0, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: processing coverage: %v\n", err)
		return 1
	}
	out, err := json.MarshalIndent(reduced, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "testdiff: encoding result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}
