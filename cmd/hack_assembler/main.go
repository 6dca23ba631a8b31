package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"its-hmny.dev/nand2tetris/pkg/asm"
	"its-hmny.dev/nand2tetris/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembler (.asm) file to be compiled")).
	WithOption(cli.NewOption("o", "The compiled binary output path, defaults to the input name with a .hack extension").
		WithType(cli.TypeString)).
	WithAction(Handler)

// outputPath derives the '.hack' destination from the given '.asm' source path, unless the
// caller supplied an explicit one via '-o'.
func outputPath(input string, options map[string]string) string {
	if explicit, set := options["o"]; set && explicit != "" {
		return explicit
	}

	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".hack"
}

func Handler(args []string, options map[string]string) int {
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	output, err := os.Create(outputPath(args[0], options))
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Instantiate a parser for the Asm program
	parser := asm.NewParser(bytes.NewReader(input))
	// Parses the input file content and extracts the AST (as a 'asm.Program') from it.
	asmProgram, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	// Instantiate a lowerer to resolve labels/variables and convert Asm to Hack
	lowerer := asm.NewLowerer(asmProgram)
	// First pass: lowers the asm.Program to an in-memory 'hack.Program' plus its resolved symbol table.
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	// Second pass: instantiate a code generator for the resolved Hack program
	codegen := hack.NewCodeGenerator(hackProgram, table)
	// Iterates over each instruction and emits its 16-bit binary textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, word := range compiled {
		if _, err := fmt.Fprintf(output, "%s\n", word); err != nil {
			fmt.Printf("ERROR: Unable to write to output file: %s\n", err)
			return -1
		}
	}

	return 0
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
