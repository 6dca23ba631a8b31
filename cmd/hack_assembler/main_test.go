package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHackAssembler(t *testing.T) {
	test := func(stem string) {
		input := "testdata/" + stem + ".asm"
		output := t.TempDir() + "/" + stem + ".hack"
		compare := "testdata/" + stem + ".cmp"

		status := Handler([]string{input}, map[string]string{"o": output})
		require.Equal(t, 0, status, "unexpected exit status code")

		compiledContent, err := os.ReadFile(output)
		require.NoError(t, err)

		expectedContent, err := os.ReadFile(compare)
		require.NoError(t, err)

		require.Equal(t, string(expectedContent), string(compiledContent))
	}

	t.Run("Add.asm", func(t *testing.T) { test("Add") })
	t.Run("Builtins.asm", func(t *testing.T) { test("Builtins") })
	t.Run("Labels.asm", func(t *testing.T) { test("Labels") })
}

func TestOutputPathDefaultsToHackExtension(t *testing.T) {
	got := outputPath("testdata/Add.asm", nil)
	require.Equal(t, "testdata/Add.hack", got)

	got = outputPath("testdata/Add.asm", map[string]string{"o": "/tmp/custom.hack"})
	require.Equal(t, "/tmp/custom.hack", got)
}
