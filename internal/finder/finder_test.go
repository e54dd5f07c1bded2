package finder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phpmetrics/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindAppliesIncludeAndExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.php"), "<?php")
	writeFile(t, filepath.Join(root, "src", "B.php"), "<?php")
	writeFile(t, filepath.Join(root, "src", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "vendor", "lib", "C.php"), "<?php")

	files, err := Find([]string{root}, config.DefaultConfig().Files)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.php"),
		filepath.Join(root, "src", "B.php"),
	}, files)
}

func TestFindSkipsNestedDependencyDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "packages", "x", "src", "A.php"), "<?php")
	writeFile(t, filepath.Join(root, "packages", "x", "vendor", "lib.php"), "<?php")
	writeFile(t, filepath.Join(root, "web", "node_modules", "pkg", "b.php"), "<?php")
	writeFile(t, filepath.Join(root, "mod", ".git", "hooks", "c.php"), "<?php")

	files, err := Find([]string{root}, config.DefaultConfig().Files)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "packages", "x", "src", "A.php")}, files)
}

func TestFindExplicitFileAndDuplicates(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "bin", "tool")
	writeFile(t, script, "<?php")
	writeFile(t, filepath.Join(root, "bin", "x.php"), "<?php")

	cfg := config.DefaultConfig().Files
	files, err := Find([]string{script, root, root}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "bin", "tool"), filepath.Join(root, "bin", "x.php")}, files)
}

func TestFindMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.php"), "<?php")
	big := make([]byte, 3*1024)
	writeFile(t, filepath.Join(root, "big.php"), string(big))

	cfg := config.DefaultConfig().Files
	cfg.MaxFileSize = 2
	files, err := Find([]string{root}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "small.php")}, files)
}

func TestFindMissingPath(t *testing.T) {
	_, err := Find([]string{filepath.Join(t.TempDir(), "nope")}, config.DefaultConfig().Files)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches([]string{"**/*.php"}, "a.php"))
	assert.True(t, Matches([]string{"**/*.php"}, "x/y/a.php"))
	assert.False(t, Matches([]string{"**/*.php"}, "x/a.inc"))
	assert.True(t, Matches([]string{"vendor/**"}, "vendor/a/b.php"))
	assert.False(t, Matches([]string{"[bad"}, "[bad"))
}
