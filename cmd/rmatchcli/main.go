// Command rmatchcli drives a Matcher from the command line: it loads a
// newline-delimited pattern file and scans one corpus file against it,
// printing every emitted match as one tab-separated line: pattern index,
// start, inclusive end, and the quoted matched text.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"

	"github.com/coregx/rmatch"
)

type cliOptions struct {
	patternsFile string
	corpusFile   string
	caseInsens   bool
	noPrefilter  bool
	verbose      bool
	silent       bool
}

func parseFlags() *cliOptions {
	opts := &cliOptions{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription("Scan a corpus against a set of regex patterns in one pass.")

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.patternsFile, "patterns", "p", "", "file with one regex pattern per line"),
		flagSet.StringVarP(&opts.corpusFile, "input", "i", "", "file to scan"),
	)

	flagSet.CreateGroup("matching", "Matching",
		flagSet.BoolVarP(&opts.caseInsens, "case-insensitive", "ci", false, "add case variants of each pattern's literal to the prefilter (pattern matching stays case-sensitive)"),
		flagSet.BoolVar(&opts.noPrefilter, "no-prefilter", false, "disable the literal Aho-Corasick prefilter"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.silent, "silent", false, "display matches only"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s\n", err)
	}

	if opts.silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}

	if opts.patternsFile == "" || opts.corpusFile == "" {
		gologger.Fatal().Msgf("rmatchcli: both -patterns and -input are required")
	}
	return opts
}

func main() {
	opts := parseFlags()

	patterns, err := readLines(opts.patternsFile)
	if err != nil {
		gologger.Fatal().Msgf("failed to read patterns: %v", err)
	}
	corpus, err := os.ReadFile(opts.corpusFile)
	if err != nil {
		gologger.Fatal().Msgf("failed to read input: %v", err)
	}

	cfg := rmatch.DefaultConfig()
	cfg.EnablePrefilter = !opts.noPrefilter
	if err := cfg.Validate(); err != nil {
		gologger.Fatal().Msgf("invalid config: %v", err)
	}

	m := rmatch.New(cfg)
	defer m.Shutdown()

	matchOpts := rmatch.Options{CaseInsensitive: opts.caseInsens}
	for i, pattern := range patterns {
		idx := i
		action := rmatch.ActionFunc(func(buf rmatch.Buffer, start, end int) {
			text, _ := buf.Slice(start, end+1)
			fmt.Printf("%d\t%d\t%d\t%q\n", idx, start, end, text)
		})
		if err := m.Add(pattern, matchOpts, action); err != nil {
			gologger.Error().Msgf("pattern %d (%q) rejected: %v", idx, pattern, err)
		}
	}

	gologger.Info().Msgf("loaded %d pattern(s), scanning %d byte(s)", len(patterns), len(corpus))
	if err := m.Match(rmatch.NewBuffer(string(corpus))); err != nil {
		gologger.Fatal().Msgf("scan failed: %v", err)
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
