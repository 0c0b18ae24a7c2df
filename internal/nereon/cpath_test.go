package nereon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCPath(t *testing.T) {
	t.Run("empty is absent", func(t *testing.T) {
		p, err := newCPath("")
		require.NoError(t, err)
		assert.Nil(t, p.ptr())
	})

	t.Run("terminated copy", func(t *testing.T) {
		p, err := newCPath("/etc/app.hcl")
		require.NoError(t, err)
		require.NotNil(t, p.ptr())
		assert.Equal(t, append([]byte("/etc/app.hcl"), 0), p.buf)
	})

	t.Run("embedded nul", func(t *testing.T) {
		_, err := newCPath("/etc/a\x00b")
		assert.ErrorIs(t, err, ErrInvalidText)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := newCPath("/etc/\xff")
		assert.ErrorIs(t, err, ErrInvalidText)
	})
}
