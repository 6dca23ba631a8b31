package jack_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func TestSyntaxAnalyserEmptySubroutine(t *testing.T) {
	source := `
class Main {
   function void main() {
      return;
   }
}
`
	sa, err := jack.NewSyntaxAnalyser(strings.NewReader(source))
	require.NoError(t, err)

	got, err := sa.Analyse()
	require.NoError(t, err)

	want := "" +
		"<class>\n" +
		"  <keyword> class </keyword>\n" +
		"  <identifier> Main </identifier>\n" +
		"  <symbol> { </symbol>\n" +
		"  <subroutineDec>\n" +
		"    <keyword> function </keyword>\n" +
		"    <keyword> void </keyword>\n" +
		"    <identifier> main </identifier>\n" +
		"    <symbol> ( </symbol>\n" +
		"    <parameterList>\n" +
		"    </parameterList>\n" +
		"    <symbol> ) </symbol>\n" +
		"    <subroutineBody>\n" +
		"      <symbol> { </symbol>\n" +
		"      <statements>\n" +
		"        <returnStatement>\n" +
		"          <keyword> return </keyword>\n" +
		"          <symbol> ; </symbol>\n" +
		"        </returnStatement>\n" +
		"      </statements>\n" +
		"      <symbol> } </symbol>\n" +
		"    </subroutineBody>\n" +
		"  </subroutineDec>\n" +
		"  <symbol> } </symbol>\n" +
		"</class>\n"

	require.Equal(t, want, got)
}

func TestSyntaxAnalyserEscapesXMLEntities(t *testing.T) {
	source := `
class Main {
   function void main() {
      do Output.printString("<a & b>");
      return;
   }
}
`
	sa, err := jack.NewSyntaxAnalyser(strings.NewReader(source))
	require.NoError(t, err)

	got, err := sa.Analyse()
	require.NoError(t, err)

	require.Contains(t, got, "<stringConstant> &lt;a &amp; b&gt; </stringConstant>")
}
