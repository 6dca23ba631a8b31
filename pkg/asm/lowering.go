package asm

import (
	"fmt"
	"strconv"

	"its-hmny.dev/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// Lowerer walks an 'asm.Program' and produces its 'hack.Program' counterpart together with
// the symbol table needed to resolve every label reference left in the A-instructions.
//
// This is exactly the Assembler's first pass: a label declaration does not become an
// instruction of its own, it just records the address of whatever comes right after it, so
// resolving labels and stripping them out of the instruction stream happen in the same walk.
type Lowerer struct{ program Program }

// Requires the given Program to be non-nil and non-empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower produces the resolved 'hack.Program' plus the 'hack.SymbolTable' mapping every
// user-defined label to the instruction address immediately following its declaration.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("the given 'program' is empty")
	}

	program := make(hack.Program, 0, len(l.program))
	table := hack.SymbolTable{}

	for _, statement := range l.program {
		switch stmt := statement.(type) {
		case AInstruction:
			inst, err := l.HandleAInst(stmt)
			if err != nil {
				return nil, nil, fmt.Errorf("error lowering A-instruction '@%s': %w", stmt.Location, err)
			}
			program = append(program, inst)

		case CInstruction:
			inst, err := l.HandleCInst(stmt)
			if err != nil {
				return nil, nil, fmt.Errorf("error lowering C-instruction: %w", err)
			}
			program = append(program, inst)

		case LabelDecl:
			name, err := l.HandleLabelDecl(stmt)
			if err != nil {
				return nil, nil, err
			}
			// A label always resolves to the address of the NEXT real instruction, hence
			// the use of the instruction count accumulated so far rather than its own index.
			table[name] = uint16(len(program))

		default:
			return nil, nil, fmt.Errorf("unrecognized statement type '%T'", statement)
		}
	}

	return program, table, nil
}

// HandleAInst resolves which kind of location a symbolic A-instruction refers to: a
// built-in register/alias, a raw numeric literal, or a user-defined label.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, isBuiltIn := hack.BuiltInTable[inst.Location]; isBuiltIn {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}

	if _, err := strconv.ParseUint(inst.Location, 10, 16); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}

	// Anything else is a label; whether it's been declared yet is resolved later by the
	// code generator (forward references to labels declared further down are legal).
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}

// HandleCInst carries a C-instruction's bit-code fields across unchanged, only validating
// that exactly one of 'Dest'/'Jump' is present (the grammar never allows both nor neither).
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, fmt.Errorf("'comp' sub-instruction is mandatory")
	}

	switch {
	case inst.Dest != "" && inst.Jump == "":
		return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp}, nil
	case inst.Jump != "" && inst.Dest == "":
		return hack.CInstruction{Comp: inst.Comp, Jump: inst.Jump}, nil
	default:
		return nil, fmt.Errorf("expected exactly one of 'dest' or 'jump' sub-instructions")
	}
}

// HandleLabelDecl just unwraps the label's name; the caller is responsible for mapping it
// to an address, since that depends on the position of the declaration in the full program.
func (Lowerer) HandleLabelDecl(decl LabelDecl) (string, error) {
	if decl.Name == "" {
		return "", fmt.Errorf("label declaration cannot have an empty name")
	}
	return decl.Name, nil
}
