package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJackCompiler(t *testing.T) {
	test := func(dir string, className string, expected string) {
		status := Handler([]string{dir}, map[string]string{})
		require.Equal(t, 0, status, "unexpected exit status code")

		outPath := dir + "/" + className + ".vm"
		defer os.Remove(outPath)

		got, err := os.ReadFile(outPath)
		require.NoError(t, err)

		require.Equal(t, expected, string(got))
	}

	t.Run("Arithmetic", func(t *testing.T) {
		test("testdata/Arithmetic", "Main", ""+
			"function Main.main 1\n"+
			"push constant 1\n"+
			"push constant 2\n"+
			"add\n"+
			"pop local 0\n"+
			"push local 0\n"+
			"return\n")
	})

	// Covers a method with an array l-value assignment (the temp/pointer dance), exercising the
	// method prelude, the 'field' offset mapping and the argument indices shifted by the implicit 'this'.
	t.Run("Method", func(t *testing.T) {
		test("testdata/Method", "A", ""+
			"function A.m 0\n"+
			"push argument 0\n"+
			"pop pointer 0\n"+
			"push argument 1\n"+
			"push this 0\n"+
			"add\n"+
			"push argument 2\n"+
			"pop temp 0\n"+
			"pop pointer 1\n"+
			"push temp 0\n"+
			"pop that 0\n"+
			"push constant 0\n"+
			"return\n")
	})

	// Covers a call to an OS/stdlib routine (Output.printString) compiled without '--stdlib': the
	// callee's class is never declared in the program, so it must be lowered as an opaque external
	// call rather than rejected.
	t.Run("OsCall", func(t *testing.T) {
		test("testdata/OsCall", "Foo", ""+
			"function Foo.main 0\n"+
			"push constant 2\n"+
			"call String.new 1\n"+
			"push constant 72\n"+
			"call String.appendChar 2\n"+
			"push constant 105\n"+
			"call String.appendChar 2\n"+
			"call Output.printString 1\n"+
			"pop temp 0\n"+
			"push constant 0\n"+
			"return\n")
	})
}
