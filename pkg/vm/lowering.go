package vm

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"its-hmny.dev/nand2tetris/pkg/asm"
)

// Maps the four "base register + offset" segments to the Asm symbol holding their base address.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a whole 'vm.Program' (every translation unit/module involved in the
// final build) and produces its 'asm.Program' counterpart.
//
// A VM program is the concatenation of multiple modules (one per Jack class) into a single
// Hack assembly program: comparison and return-address labels must stay unique across the
// entire build, so their counters ('testJump', 'retAddr') live on the Lowerer itself rather
// than being reset per module. Modules are processed in lexicographic filename order so that
// a given input always lowers to the same output.
type Lowerer struct {
	program   Program
	bootstrap bool // Whether to prepend the Sys.init bootstrap sequence

	testJump int // Shared counter used to name the 'eq'/'gt'/'lt' comparison labels
	retAddr  int // Shared counter used to name the 'call' return-address labels

	progName string // Translation unit currently being lowered, used for the 'static' segment
	funcName string // Function currently being lowered, used to scope 'label'/'goto'/'if-goto'
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// 'bootstrap' decides whether the Sys.init bootstrap sequence is prepended to the output.
func NewLowerer(p Program, bootstrap bool) Lowerer {
	return Lowerer{program: p, bootstrap: bootstrap}
}

// Triggers the lowering process on the whole program. Modules are visited in sorted filename
// order and, inside each module, operations are translated one by one into their Asm counterpart.
func (l *Lowerer) Lowerer() (asm.Program, error) {
	if len(l.program) == 0 {
		return nil, fmt.Errorf("the given 'program' is empty")
	}

	program := asm.Program{}
	if l.bootstrap {
		program = append(program, l.writeBootstrap()...)
	}

	names := make([]string, 0, len(l.program))
	for name := range l.program {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l.progName = strings.TrimSuffix(name, filepath.Ext(name))
		l.funcName = ""

		for _, operation := range l.program[name] {
			statements, err := l.handleOperation(operation)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			program = append(program, statements...)
		}
	}

	return program, nil
}

// Dispatches a single 'vm.Operation' to its specialized handler, based on its concrete type.
func (l *Lowerer) handleOperation(operation Operation) ([]asm.Statement, error) {
	switch op := operation.(type) {
	case MemoryOp:
		return l.handleMemoryOp(op)
	case ArithmeticOp:
		return l.handleArithmeticOp(op)
	case LabelDecl:
		return l.handleLabelDecl(op)
	case GotoOp:
		return l.handleGotoOp(op)
	case FuncDecl:
		return l.handleFuncDecl(op)
	case FuncCallOp:
		return l.handleFuncCallOp(op)
	case ReturnOp:
		return l.handleReturnOp(op)
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", operation)
	}
}

// ----------------------------------------------------------------------------
// Shared stack helpers

// Pushes the current value of the D register onto the stack, advancing the Stack Pointer.
func writePushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Pops the stack's top into the D register, retreating the Stack Pointer.
func writePopD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// ----------------------------------------------------------------------------
// Memory Op

// Specialized function to convert a 'vm.MemoryOp' to a sequence of 'asm.Statement'.
func (l *Lowerer) handleMemoryOp(op MemoryOp) ([]asm.Statement, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	switch op.Segment {
	case Constant:
		if op.Operation != Push {
			return nil, fmt.Errorf("segment 'constant' only supports 'push'")
		}
		return append([]asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}, writePushD()...), nil

	case Local, Argument, This, That:
		base := segmentBase[op.Segment]
		if op.Operation == Push {
			return append([]asm.Statement{
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "D", Comp: "M"},
				asm.AInstruction{Location: fmt.Sprint(op.Offset)},
				asm.CInstruction{Dest: "A", Comp: "D+A"},
				asm.CInstruction{Dest: "D", Comp: "M"},
			}, writePushD()...), nil
		}

		statements := []asm.Statement{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		statements = append(statements, writePopD()...)
		return append(statements,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		), nil

	case Temp:
		return l.handleDirect(op.Operation, fmt.Sprint(5+op.Offset))

	case Pointer:
		target := That
		if op.Offset == 0 {
			target = This
		}
		return l.handleDirect(op.Operation, segmentBase[target])

	case Static:
		return l.handleDirect(op.Operation, fmt.Sprintf("%s.%d", l.progName, op.Offset))
	}

	return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
}

// Shared push/pop helper for every segment resolvable to a single, direct Asm location
// (temp, pointer and static all collapse to this, the only thing that differs is the symbol).
func (l *Lowerer) handleDirect(operation OperationType, location string) ([]asm.Statement, error) {
	if operation == Push {
		return append([]asm.Statement{
			asm.AInstruction{Location: location},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, writePushD()...), nil
	}

	statements := writePopD()
	return append(statements,
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "M", Comp: "D"},
	), nil
}

// ----------------------------------------------------------------------------
// Arithmetic Op

// Specialized function to convert a 'vm.ArithmeticOp' to a sequence of 'asm.Statement'.
func (l *Lowerer) handleArithmeticOp(op ArithmeticOp) ([]asm.Statement, error) {
	switch op.Operation {
	case Neg, Not:
		comp := "-M"
		if op.Operation == Not {
			comp = "!M"
		}
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Add, Sub, And, Or:
		comp := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}[op.Operation]
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Eq, Gt, Lt:
		jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op.Operation]
		trueLabel := fmt.Sprintf("TRUE%d", l.testJump)
		endLabel := fmt.Sprintf("ENDTEST%d", l.testJump)
		l.testJump++

		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "D", Comp: "M-D"},
			asm.AInstruction{Location: trueLabel},
			asm.CInstruction{Comp: "D", Jump: jump},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: endLabel},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
			asm.LabelDecl{Name: trueLabel},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "-1"},
			asm.LabelDecl{Name: endLabel},
		}, nil
	}

	return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
}

// ----------------------------------------------------------------------------
// Label Declaration & Branching

// Prefixes a bare VM-level label with the enclosing function's name, so that two functions
// using the same label text (e.g. both looping with 'label WHILE_EXP0') don't collide once
// concatenated into a single Hack assembly program.
func (l *Lowerer) scopedLabel(name string) string {
	if l.funcName == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.funcName, name)
}

// Specialized function to convert a 'vm.LabelDecl' to a sequence of 'asm.Statement'.
func (l *Lowerer) handleLabelDecl(op LabelDecl) ([]asm.Statement, error) {
	return []asm.Statement{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

// Specialized function to convert a 'vm.GotoOp' to a sequence of 'asm.Statement'.
func (l *Lowerer) handleGotoOp(op GotoOp) ([]asm.Statement, error) {
	label := l.scopedLabel(op.Label)

	if op.Jump == Unconditional {
		return []asm.Statement{
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	statements := writePopD()
	return append(statements,
		asm.AInstruction{Location: label},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	), nil
}

// ----------------------------------------------------------------------------
// Functions

// Specialized function to convert a 'vm.FuncDecl' to a sequence of 'asm.Statement'.
//
// Besides emitting the entrypoint label, it zero-initializes every local variable the
// function declared, matching the semantics of 'push constant 0' repeated 'NLocal' times.
func (l *Lowerer) handleFuncDecl(op FuncDecl) ([]asm.Statement, error) {
	l.funcName = op.Name

	statements := []asm.Statement{asm.LabelDecl{Name: op.Name}}
	for i := uint8(0); i < op.NLocal; i++ {
		statements = append(statements,
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		)
	}
	return statements, nil
}

// Specialized function to convert a 'vm.FuncCallOp' to a sequence of 'asm.Statement'.
//
// Saves the caller's frame (return address, LCL, ARG, THIS, THAT) on the stack, repositions
// ARG and LCL for the callee and jumps to it; once the callee returns, the caller resumes
// execution right after the jump, at the freshly emitted return-address label.
func (l *Lowerer) handleFuncCallOp(op FuncCallOp) ([]asm.Statement, error) {
	retLabel := fmt.Sprintf("retaddr%d", l.retAddr)
	l.retAddr++

	statements := []asm.Statement{
		asm.AInstruction{Location: retLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	statements = append(statements, writePushD()...)

	for _, register := range []string{"LCL", "ARG", "THIS", "THAT"} {
		statements = append(statements,
			asm.AInstruction{Location: register},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		statements = append(statements, writePushD()...)
	}

	statements = append(statements,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},

		asm.LabelDecl{Name: retLabel},
	)

	return statements, nil
}

// Specialized function to convert a 'vm.ReturnOp' to a sequence of 'asm.Statement'.
//
// Restores the caller's frame from the one saved by 'handleFuncCallOp', repositions the Stack
// Pointer just past the returned value and jumps back to the saved return address.
// Uses R13/R14 as scratch registers (FRAME and RET respectively).
func (l *Lowerer) handleReturnOp(op ReturnOp) ([]asm.Statement, error) {
	statements := []asm.Statement{
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"}, // D = FRAME
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // R13 = FRAME

		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"}, // D = *(FRAME-5)
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // R14 = RET
	}

	statements = append(statements, writePopD()...)
	statements = append(statements,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // *ARG = pop()

		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // SP = ARG+1

		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // THAT = *(FRAME-1)

		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // THIS = *(FRAME-2)

		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // ARG = *(FRAME-3)

		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // LCL = *(FRAME-4)

		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"}, // goto RET
	)

	return statements, nil
}

// ----------------------------------------------------------------------------
// Bootstrap

// Emits the standard bootstrap sequence: initializes the Stack Pointer to its base location
// (256) and calls 'Sys.init' with zero arguments, exactly as 'call Sys.init 0' would.
func (l *Lowerer) writeBootstrap() []asm.Statement {
	statements := []asm.Statement{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	call, _ := l.handleFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	return append(statements, call...)
}
