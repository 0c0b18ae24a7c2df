package nereon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/nereon/internal/testutil"
	"grimm.is/nereon/internal/tree"
)

// The same file must decode identically through libnereon and the HCL engine.
func TestNativeMatchesEngine(t *testing.T) {
	testutil.RequireNative(t)

	lib, err := NewNativeLibrary()
	require.NoError(t, err)

	path := testutil.WriteFile(t, "app.hcl", "port = 8080\nname = \"edge\"\n")
	native, err := Decode(lib, path, "", quiet)
	require.NoError(t, err)
	hcl, err := Decode(hclEngine(), path, "", quiet)
	require.NoError(t, err)

	assert.True(t, native.Equal(hcl))
	assert.True(t, tree.Int("port", 8080).Equal(native.Get("port")))
}
