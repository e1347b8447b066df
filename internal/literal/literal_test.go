package literal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/literal"
)

func TestExtractRejectsTopLevelAlternation(t *testing.T) {
	// "cat" begins the regex, but "dog" or "bird" can start a match
	// without it, so no hint can safely prune candidate offsets.
	hint, ok := literal.Extract(1, "cat|dog|bird", false)
	require.False(t, ok)
	require.Equal(t, "", hint.Literal)
	require.False(t, hint.Anchored)
	require.Equal(t, 0, hint.OffsetInMatch)
}

func TestExtractDropsQuantifiedTrailingChar(t *testing.T) {
	// "bc" is a valid run but starts at offset 2, not 0: it cannot anchor
	// the match start (a variable-length "a+" precedes it), so Extract
	// must report no usable hint rather than an unsafe one.
	_, ok := literal.Extract(2, "a+bc", false)
	require.False(t, ok)
}

func TestExtractIgnoresCharacterClassContent(t *testing.T) {
	hint, ok := literal.Extract(3, "def[abc]", false)
	require.True(t, ok)
	require.Equal(t, "def", hint.Literal)
	require.True(t, hint.Anchored)
}

func TestExtractFindsNothingForPureCharacterClass(t *testing.T) {
	_, ok := literal.Extract(4, "[abc]", false)
	require.False(t, ok)
}

func TestExtractRejectsSingleCharRuns(t *testing.T) {
	_, ok := literal.Extract(5, "a", false)
	require.False(t, ok)
}

func TestExtractPreservesFoldFlag(t *testing.T) {
	hint, ok := literal.Extract(6, "needle", true)
	require.True(t, ok)
	require.True(t, hint.Fold)
}

func TestExtractSplitsOnAlternationAndGroups(t *testing.T) {
	// "(foo)bar" splits into runs "foo" (start 1) and "bar" (start 5);
	// neither starts at offset 0 (the leading '(' shifts "foo" over), so
	// neither can safely anchor a prefilter candidate offset.
	_, ok := literal.Extract(7, "(foo)bar", false)
	require.False(t, ok)
}

func TestExtractUsesLeadingGroupLiteral(t *testing.T) {
	hint, ok := literal.Extract(8, "foo(bar)", false)
	require.True(t, ok)
	require.Equal(t, "foo", hint.Literal)
	require.True(t, hint.Anchored)
	require.Equal(t, 0, hint.OffsetInMatch)
}
