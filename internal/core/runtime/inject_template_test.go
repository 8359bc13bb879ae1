package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteInjectTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scripts", "inject.js")
	require.NoError(t, WriteInjectTemplate(path, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(content), `window.addEventListener("DOMContentLoaded"`))
	require.Contains(t, string(content), "document.head.appendChild(style);")

	require.Error(t, WriteInjectTemplate(path, false))

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o644))
	require.NoError(t, WriteInjectTemplate(path, true))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, injectTemplate, string(content))
}
