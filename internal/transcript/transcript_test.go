package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanTrimsEdges(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world", Clean("  hello world  "))
}

func TestCleanPreservesInteriorWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello  world", Clean("  hello  world  "))
	require.Equal(t, "hello\tworld", Clean("hello\tworld\n"))
}

func TestCleanEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Clean("   \n\t"))
	require.Empty(t, Clean(""))
}

func TestJoinMergesSegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world from parlo", Join([]string{" hello", "world ", "", "from parlo"}))
	require.Equal(t, "hello world", Join([]string{" hello", "world "}))
}

func TestJoinKeepsInteriorSpacingWithinSegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello  world next", Join([]string{" hello  world ", "next"}))
}
