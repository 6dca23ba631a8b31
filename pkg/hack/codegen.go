package hack

import (
	"fmt"
	"strconv"
)

// ----------------------------------------------------------------------------
// Translation tables

// These four tables are the entire Hack ISA encoding, lifted straight from the architecture
// spec: given a mnemonic they give back the bit pattern for its slot in the instruction word.

var BuiltInTable = map[string]uint16{
	// Aliases used pervasively by the VM translator's segment-addressing scheme (project 7/8)
	"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
	// General-purpose registers, addressable both by name and by raw RAM address
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
	"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
	"R12": 12, "R13": 13, "R14": 14, "R15": 15,
	// Memory-mapped I/O
	"SCREEN": 16384, "KBD": 24576,
}

var CompTable = map[string]uint16{
	// Constants and identities
	"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
	"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
	// Bitwise and arithmetic negation
	"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
	"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
	// Increment/decrement
	"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
	"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
	// Register-to-register arithmetic
	"D+A": 0b0000010, "D+M": 0b1000010,
	"D-A": 0b0010011, "D-M": 0b1010011,
	"A-D": 0b0000111, "M-D": 0b1000111,
	// Bitwise register-to-register
	"D&A": 0b0000000, "D&M": 0b1000000,
	"D|A": 0b0010101, "D|M": 0b1010101,
}

var DestTable = map[string]uint16{
	"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
	"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
}

var JumpTable = map[string]uint16{
	"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
	"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
}

// ----------------------------------------------------------------------------
// Hack Code Generator

// CodeGenerator renders a resolved 'hack.Program' to 16-bit binary words, one per line.
// This is the Assembler's second pass: variable allocation for previously-unseen labels
// happens here too, since it can only be finalized once every label reference is visited.
type CodeGenerator struct {
	program    Program
	table      SymbolTable
	nVarOffset uint16 // Next free slot for a newly-discovered variable, relative to address 16
}

// Requires a non-nil Program 'p'; the SymbolTable 'st' may be empty but not nil, since new
// variable addresses get written back into it as they're discovered.
func NewCodeGenerator(p Program, st SymbolTable) CodeGenerator {
	return CodeGenerator{program: p, table: st}
}

// Generate renders every instruction to its 16-bit binary word, in program order.
func (cg *CodeGenerator) Generate() ([]string, error) {
	words := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var word string
		var err error

		switch inst := instruction.(type) {
		case AInstruction:
			word, err = cg.GenerateAInst(inst)
		case CInstruction:
			word, err = cg.GenerateCInst(inst)
		default:
			err = fmt.Errorf("unrecognized instruction type '%T'", instruction)
		}

		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	return words, nil
}

// GenerateAInst resolves the instruction's location to a concrete address and renders it as
// 16 bits with the leading opcode bit forced to zero. Labels seen for the first time here are
// treated as variables and assigned the next free RAM slot starting at address 16.
func (cg *CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	var address uint16
	var resolved bool

	switch inst.LocType {
	case Raw:
		n, err := strconv.ParseUint(inst.LocName, 10, 16)
		address, resolved = uint16(n), err == nil

	case Label:
		address, resolved = cg.table[inst.LocName]
		if !resolved {
			address = 16 + cg.nVarOffset
			cg.table[inst.LocName] = address
			cg.nVarOffset++
			resolved = true
		}

	case BuiltIn:
		address, resolved = BuiltInTable[inst.LocName]
	}

	if !resolved {
		return "", fmt.Errorf("unable to resolve address for location '%s'", inst.LocName)
	}
	// Only 15 bits of an A-instruction address the machine: anything past 32767 overruns it.
	if address > MaxAddressableMemory {
		return "", fmt.Errorf("location '%s' resolved to an out-of-bounds address %d", inst.LocName, address)
	}

	return fmt.Sprintf("%016b", address), nil
}

// GenerateCInst packs the 'comp'/'dest'/'jump' mnemonics into their respective bit fields of
// the instruction word, prefixed by the fixed '111' opcode every C-instruction carries.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	word := uint16(0b111 << 13)

	comp, found := CompTable[inst.Comp]
	if inst.Comp == "" || !found {
		return "", fmt.Errorf("unknown or missing 'comp' opcode '%s'", inst.Comp)
	}
	word |= comp << 6

	dest, found := DestTable[inst.Dest]
	if !found {
		return "", fmt.Errorf("unknown 'dest' opcode '%s'", inst.Dest)
	}
	word |= dest << 3

	jump, found := JumpTable[inst.Jump]
	if !found {
		return "", fmt.Errorf("unknown 'jump' opcode '%s'", inst.Jump)
	}
	word |= jump

	return fmt.Sprintf("%016b", word), nil
}
