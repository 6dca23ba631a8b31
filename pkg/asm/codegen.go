package asm

import (
	"fmt"

	"its-hmny.dev/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Code Generator

// CodeGenerator renders a slice of 'asm.Statement' back to their textual Hack-assembly form.
// This is effectively the inverse of the parser: given an in-memory program it produces the
// ".asm" source lines a human (or the Assembler's own reader) would expect to see.
type CodeGenerator struct {
	program []Statement
}

// Requires the given Program 'p' to be non-nil.
func NewCodeGenerator(p []Statement) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate renders every statement to its textual line, in program order.
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))

	for _, statement := range cg.program {
		var line string
		var err error

		switch stmt := statement.(type) {
		case AInstruction:
			line, err = cg.GenerateAInst(stmt)
		case CInstruction:
			line, err = cg.GenerateCInst(stmt)
		case LabelDecl:
			line, err = cg.GenerateLabelDecl(stmt)
		default:
			err = fmt.Errorf("unrecognized statement type '%T'", statement)
		}

		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// GenerateAInst renders '@location', where location is whatever literal/label/built-in the
// node carries (resolving which one it is happens in the lowering phase, not here).
func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", fmt.Errorf("cannot render an A-instruction with an empty location")
	}
	return fmt.Sprintf("@%s", stmt.Location), nil
}

// GenerateCInst renders either 'dest=comp' or 'comp;jump' depending on which optional field
// is populated; exactly one of the two must be, same constraint the lowerer already enforces.
func (CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", fmt.Errorf("cannot render a C-instruction without a 'comp' field")
	}

	switch {
	case stmt.Dest != "" && stmt.Jump == "":
		return fmt.Sprintf("%s=%s", stmt.Dest, stmt.Comp), nil
	case stmt.Jump != "" && stmt.Dest == "":
		return fmt.Sprintf("%s;%s", stmt.Comp, stmt.Jump), nil
	default:
		return "", fmt.Errorf("cannot render a C-instruction with both or neither of 'dest'/'jump'")
	}
}

// GenerateLabelDecl renders '(name)'; shadowing a built-in register/alias is rejected since
// it would silently break every other instruction referencing that name.
func (CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if stmt.Name == "" {
		return "", fmt.Errorf("cannot render a label declaration with an empty name")
	}
	if _, isBuiltIn := hack.BuiltInTable[stmt.Name]; isBuiltIn {
		return "", fmt.Errorf("label '%s' shadows a built-in symbol", stmt.Name)
	}
	return fmt.Sprintf("(%s)", stmt.Name), nil
}
