package jack

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"its-hmny.dev/nand2tetris/pkg/utils"
)

//go:embed stdlib.json
var stdlibSpec string

// jsonSubroutine is the wire format for a single stdlib subroutine signature: only the shape
// needed for symbol resolution and lowering is kept (names/types, no bodies to compile).
type jsonSubroutine struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Return    string   `json:"return"`
	Arguments []string `json:"arguments"`
}

type jsonClass struct {
	Subroutines []jsonSubroutine `json:"subroutines"`
}

// StandardLibraryABI holds a signature-only 'jack.Class' per OS class (Math, String, Array,
// Output, Screen, Keyboard, Memory, Sys), used to resolve/lower calls into the Jack OS without
// requiring its sources to be compiled alongside the user's program.
var StandardLibraryABI = map[string]Class{}

func init() {
	raw := map[string]jsonClass{}
	if err := json.Unmarshal([]byte(stdlibSpec), &raw); err != nil {
		panic(fmt.Errorf("malformed embedded stdlib.json: %w", err))
	}

	for className, def := range raw {
		class := Class{Name: className, Subroutines: utils.NewOrderedMap[string, Subroutine]()}

		for _, sub := range def.Subroutines {
			arguments := make([]Variable, len(sub.Arguments))
			for i, argType := range sub.Arguments {
				dataType, argClass := parseDataType(argType)
				arguments[i] = Variable{
					Name:      fmt.Sprintf("a%d", i),
					Type:      Parameter,
					DataType:  dataType,
					ClassName: argClass,
				}
			}

			returnType, _ := parseDataType(sub.Return)
			class.Subroutines.Set(sub.Name, Subroutine{
				Name:      sub.Name,
				Type:      SubroutineType(sub.Type),
				Return:    returnType,
				Arguments: arguments,
			})
		}

		StandardLibraryABI[className] = class
	}
}

// Maps a JSON type name to its 'jack.DataType'; anything other than the 3 primitives and
// 'void' is assumed to be a class reference (Object-typed, carrying the class name along).
func parseDataType(name string) (DataType, string) {
	switch name {
	case "int":
		return Int, ""
	case "char":
		return Char, ""
	case "boolean":
		return Bool, ""
	case "void", "":
		return Void, ""
	default:
		return Object, name
	}
}
