package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"golang.org/x/exp/slices"
	"its-hmny.dev/nand2tetris/pkg/asm"
	"its-hmny.dev/nand2tetris/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator (stage 2) translates a full VM program, composed of one or more .vm
modules, into a single Hack assembly program. A directory input is compiled to one combined
output prefixed with the Sys.init bootstrap sequence; on top of stage 1's stack arithmetic
and memory access this stage adds labels, branching and the function/call/return protocol.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("path", "A single .vm file or a directory of .vm files").
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
	bootstrap := false
	outPath := strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".asm"

	// Multi-file (directory) mode is the only one that triggers bootstrap emission and
	// produces a single combined output named after the directory itself.
	if info.IsDir() {
		bootstrap = true
		inputs, err = collectVmFiles(args[0])
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
		outPath = filepath.Join(args[0], filepath.Base(args[0])+".asm")
	}

	program := vm.Program{}
	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		parser := vm.NewParser(bytes.NewReader(content))
		module, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
		program[filepath.Base(input)] = module
	}

	// Instantiate a lowerer to convert the whole program from Vm to Asm, globally scoping
	// the 'test_jump'/'ret_addr' counters across every module in a single build.
	lowerer := vm.NewLowerer(program, bootstrap)
	asmProgram, err := lowerer.Lowerer()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(outPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		fmt.Fprintf(output, "%s\n", line)
	}

	return 0
}

// Enumerates the immediate '.vm' files of 'dir', sorted lexicographically so that the same
// directory always lowers to the same combined output (the original reads directory entries
// in filesystem order, which isn't reproducible).
func collectVmFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %s", err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".vm" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	slices.Sort(files)
	return files, nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
