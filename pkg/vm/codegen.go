package vm

import (
	"fmt"
)

// ----------------------------------------------------------------------------
// VM Code Generator

// CodeGenerator renders a 'vm.Program' (one module per source file) back to its textual VM
// command form, one command per line per module. Mirrors the Asm and Hack code generators:
// given an already-built in-memory program there is no further validation needed beyond
// what each operation's own rendering method checks.
type CodeGenerator struct {
	program Program
}

func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate renders every module to its ordered slice of textual VM command lines.
func (cg *CodeGenerator) Generate() (map[string][]string, error) {
	rendered := map[string][]string{}

	for name, module := range cg.program {
		lines := make([]string, 0, len(module))

		for _, operation := range module {
			var line string
			var err error

			switch op := operation.(type) {
			case MemoryOp:
				line, err = cg.GenerateMemoryOp(op)
			case ArithmeticOp:
				line, err = cg.GenerateArithmeticOp(op)
			case LabelDecl:
				line, err = cg.GenerateLabelDecl(op)
			case GotoOp:
				line, err = cg.GenerateGotoOp(op)
			case FuncDecl:
				line, err = cg.GenerateFuncDecl(op)
			case FuncCallOp:
				line, err = cg.GenerateFuncCallOp(op)
			case ReturnOp:
				line, err = cg.GenerateReturnOp(op)
			default:
				err = fmt.Errorf("unrecognized operation type '%T'", operation)
			}

			if err != nil {
				return nil, fmt.Errorf("error rendering module '%s': %w", name, err)
			}
			lines = append(lines, line)
		}

		rendered[name] = lines
	}

	return rendered, nil
}

// GenerateMemoryOp renders 'push SEG I' / 'pop SEG I', enforcing the fixed-size bounds that
// the 'pointer' (2 words) and 'temp' (8 words) segments have in the Hack memory map.
func (cg *CodeGenerator) GenerateMemoryOp(op MemoryOp) (string, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return "", fmt.Errorf("'pointer' segment offset out of range, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return "", fmt.Errorf("'temp' segment offset out of range, got %d", op.Offset)
	}

	return fmt.Sprintf("%s %s %d", string(op.Operation), string(op.Segment), op.Offset), nil
}

func (cg *CodeGenerator) GenerateArithmeticOp(op ArithmeticOp) (string, error) {
	return string(op.Operation), nil
}

func (cg *CodeGenerator) GenerateLabelDecl(op LabelDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("cannot render a label declaration with an empty name")
	}
	return fmt.Sprintf("label %s", op.Name), nil
}

func (cg *CodeGenerator) GenerateGotoOp(op GotoOp) (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("cannot render a jump with an empty target label")
	}
	return fmt.Sprintf("%s %s", string(op.Jump), op.Label), nil
}

func (cg *CodeGenerator) GenerateFuncDecl(op FuncDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("cannot render a function declaration with an empty name")
	}
	return fmt.Sprintf("function %s %d", op.Name, op.NLocal), nil
}

func (cg *CodeGenerator) GenerateFuncCallOp(op FuncCallOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("cannot render a function call with an empty target name")
	}
	return fmt.Sprintf("call %s %d", op.Name, op.NArgs), nil
}

func (cg *CodeGenerator) GenerateReturnOp(op ReturnOp) (string, error) {
	return "return", nil
}
