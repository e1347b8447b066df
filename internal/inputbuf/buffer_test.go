package inputbuf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rmatch/internal/inputbuf"
)

func TestRuneBufferIteratesAndTracksPosition(t *testing.T) {
	buf := inputbuf.NewRuneBuffer("héllo")
	require.Equal(t, 5, buf.Len())

	var got []rune
	for buf.HasNext() {
		require.Equal(t, len(got), buf.Position())
		r, err := buf.Next()
		require.NoError(t, err)
		got = append(got, r)
	}
	require.Equal(t, []rune("héllo"), got)

	_, err := buf.Next()
	require.ErrorIs(t, err, inputbuf.ErrExhausted)
}

func TestRuneBufferSliceIsPositionIndependent(t *testing.T) {
	buf := inputbuf.NewRuneBuffer("abcdef")
	_, _ = buf.Next()
	_, _ = buf.Next()

	s, err := buf.Slice(0, 3)
	require.NoError(t, err)
	require.Equal(t, "abc", s)
	require.Equal(t, 2, buf.Position())

	_, err = buf.Slice(0, 99)
	require.Error(t, err)
}

func TestRuneBufferCloneIsIndependent(t *testing.T) {
	buf := inputbuf.NewRuneBuffer("abc")
	_, _ = buf.Next()

	clone := buf.Clone()
	_, _ = buf.Next()

	require.Equal(t, 2, buf.Position())
	require.Equal(t, 1, clone.Position())
}

func TestActionFuncAdaptsPlainFunction(t *testing.T) {
	var got [2]int
	fn := inputbuf.ActionFunc(func(buf inputbuf.Buffer, start, end int) {
		got[0], got[1] = start, end
	})

	var action inputbuf.Action = fn
	action.Perform(inputbuf.NewRuneBuffer("x"), 1, 4)
	require.Equal(t, [2]int{1, 4}, got)
}
