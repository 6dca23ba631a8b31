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
The VM Translator (stage 1) translates a single .vm bytecode file into Hack assembly code,
supporting only stack arithmetic and memory access commands. Directory inputs are translated
file by file, each producing its own .asm output; no bootstrap code is ever emitted at this
stage since control flow and function calls aren't available yet.
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
	if info.IsDir() {
		inputs, err = collectVmFiles(args[0])
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
	}

	for _, input := range inputs {
		if err := translateOne(input); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
	}

	return 0
}

// Enumerates the immediate '.vm' files of 'dir', sorted lexicographically so that the
// same directory always translates to the same sequence of outputs.
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

// Translates a single '.vm' file into its sibling '.asm' file, standalone (no bootstrap,
// no cross-file label scoping), matching stage 1's one-module-at-a-time scope.
func translateOne(input string) error {
	content, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("unable to open input file: %s", err)
	}

	parser := vm.NewParser(bytes.NewReader(content))
	module, err := parser.Parse()
	if err != nil {
		return fmt.Errorf("unable to complete 'parsing' pass: %s", err)
	}

	if err := assertStage1Supported(module); err != nil {
		return err
	}

	program := vm.Program{filepath.Base(input): module}
	lowerer := vm.NewLowerer(program, false)
	asmProgram, err := lowerer.Lowerer()
	if err != nil {
		return fmt.Errorf("unable to complete 'lowering' pass: %s", err)
	}

	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		return fmt.Errorf("unable to complete 'codegen' pass: %s", err)
	}

	outPath := strings.TrimSuffix(input, filepath.Ext(input)) + ".asm"
	output, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("unable to open output file: %s", err)
	}
	defer output.Close()

	for _, line := range compiled {
		fmt.Fprintf(output, "%s\n", line)
	}

	return nil
}

// Stage 1 only supports stack arithmetic and memory access commands; control flow and
// function calls are introduced in stage 2, rejecting them here keeps the two stages honest.
func assertStage1Supported(module vm.Module) error {
	for _, operation := range module {
		switch operation.(type) {
		case vm.MemoryOp, vm.ArithmeticOp:
			continue
		default:
			return fmt.Errorf("operation '%T' is not supported in stage-1 (memory/arithmetic only)", operation)
		}
	}
	return nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
