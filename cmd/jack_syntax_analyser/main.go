package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"golang.org/x/exp/slices"
	"its-hmny.dev/nand2tetris/pkg/jack"
)

var Description = strings.ReplaceAll(`
The Jack Syntax Analyser is the stage-1 front end of the Jack Compiler: it tokenizes and
parses Jack source without emitting any VM code, instead rendering the full parse tree as
XML. It is mostly useful to inspect or test the grammar independently of code generation.
`, "\n", " ")

var SyntaxAnalyser = cli.New(Description).
	WithArg(cli.NewArg("path", "A single .jack file or a directory of .jack files").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	info, err := os.Stat(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to access input path: %s\n", err)
		return -1
	}

	inputs := []string{args[0]}
	if info.IsDir() {
		inputs, err = collectJackFiles(args[0])
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
	}

	for _, input := range inputs {
		if err := analyseOne(input); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
	}

	return 0
}

// Enumerates the immediate '.jack' files of 'dir', sorted lexicographically so the same
// directory always produces the same sequence of outputs.
func collectJackFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %s", err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	slices.Sort(files)
	return files, nil
}

// analyseOne renders a single '.jack' file's parse tree to its sibling '{stem}C.xml' file.
func analyseOne(input string) error {
	content, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("unable to open input file: %s", err)
	}

	analyser, err := jack.NewSyntaxAnalyser(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("unable to complete 'tokenizing' pass: %s", err)
	}

	xml, err := analyser.Analyse()
	if err != nil {
		return fmt.Errorf("unable to complete 'parsing' pass: %s", err)
	}

	stem := strings.TrimSuffix(input, filepath.Ext(input))
	output, err := os.Create(stem + "C.xml")
	if err != nil {
		return fmt.Errorf("unable to open output file: %s", err)
	}
	defer output.Close()

	if _, err := output.WriteString(xml); err != nil {
		return fmt.Errorf("unable to write output file: %s", err)
	}

	return nil
}

func main() { os.Exit(SyntaxAnalyser.Run(os.Args, os.Stdout)) }
