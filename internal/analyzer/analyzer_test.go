package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"phpmetrics/internal/config"
	"phpmetrics/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAggregatorFansOut(t *testing.T) {
	file, total := models.NewCounterSet(), models.NewCounterSet()
	agg := NewAggregator(file, total)

	agg.Apply(models.Event{Kind: models.EventLogicalLine})
	agg.Apply(models.Event{Kind: models.EventNamespace, Name: "App"})
	assert.Equal(t, 1, file.LogicalLines)
	assert.Equal(t, 1, total.LogicalLines)

	assert.Same(t, file, agg.FinalizePerFile())
	agg.Apply(models.Event{Kind: models.EventLogicalLine})
	assert.Equal(t, 1, file.LogicalLines)
	assert.Equal(t, 2, total.LogicalLines)
	assert.Same(t, total, agg.FinalizeTotal())
}

func TestNewRejectsUnknownTokenizer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.Tokenizer = "regex"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestAnalyzeFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	a := writeFile(t, dir, "src/A.php", `<?php
namespace App;
class A { public function run() { if ($x) { return 1; } return 2; } }
`)
	b := writeFile(t, dir, "src/b.php", `<?php
function helper($v) { return $v ? 1 : 0; }
define('VERSION', '1.0');
`)
	missing := filepath.Join(dir, "src", "missing.php")

	cfg := config.DefaultConfig()
	cfg.Analysis.CacheSize = 0
	engine, err := New(cfg)
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.AnalyzeFiles([]string{a, missing, b})
	require.NoError(t, err)

	assert.Equal(t, []string{a, b}, result.Files)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].Path)
	assert.Contains(t, result.Errors[0].Err, "failed to read")

	assert.Equal(t, 2, result.Total.Files)
	assert.Equal(t, 1, result.Total.NonFinalClasses)
	assert.Equal(t, 1, result.Total.NamedFunctions)
	assert.Equal(t, 1, result.Total.GlobalConstants)
	assert.Equal(t, []string{filepath.Join(dir, "src")}, result.Total.Directories.Names())
	assert.Equal(t, 2, result.Total.Directories[filepath.Join(dir, "src")])

	assert.Equal(t, 2, result.PerFile[a].Complexity)
	assert.Equal(t, 1, result.PerFile[b].Complexity)
	assert.Equal(t, 3, result.Total.Complexity)
}

func TestAnalyzeFilesTotalEqualsSumOfFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "one.php", `<?php
abstract class Shape { abstract public function area(); }
final class Square extends Shape {
    private $side;
    public function area() { return $this->side * $this->side; }
    public static function of($s) { $q = new static(); $q->side = $s; return $q; }
}
`),
		writeFile(t, dir, "two.php", `<?php
// helpers
foreach ($_GET as $k => $v) { if ($v && $k) { echo Square::of($v)->area(); } }
$f = function () { global $config; return $config; };
`),
		writeFile(t, dir, "three.php", `<?php interface Renderer { const MODE = 'html'; }`),
	}

	cfg := config.DefaultConfig()
	cfg.Analysis.MaxWorkers = 2
	engine, err := New(cfg)
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.AnalyzeFiles(files)
	require.NoError(t, err)

	sum := models.NewCounterSet()
	for _, path := range result.Files {
		sum.Add(result.PerFile[path])
	}

	want, err := json.Marshal(sum)
	require.NoError(t, err)
	got, err := json.Marshal(result.Total)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Equal(t, result.Sum().LogicalLines, result.Total.LogicalLines)
}

func TestAnalyzeFilesDetectsTestsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "tests/UserTest.php", `<?php
namespace Tests;
class UserTest extends BaseTest {
    public function testName() {}
    public function testEmail() {}
}
`),
		writeFile(t, dir, "tests/BaseTest.php", `<?php
namespace Tests;
abstract class BaseTest extends \PHPUnit\Framework\TestCase {
    protected function fixture() {}
}
`),
	}

	cfg := config.DefaultConfig()
	cfg.Analysis.CountTests = true
	engine, err := New(cfg)
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.AnalyzeFiles(files)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total.TestClasses)
	assert.Equal(t, 2, result.Total.TestMethods)
	assert.Zero(t, result.Total.Classes())
	assert.Zero(t, result.Total.Methods())

	// without detection the same code is ordinary code
	cfg.Analysis.CountTests = false
	plain, err := New(cfg)
	require.NoError(t, err)
	defer plain.Close()

	result, err = plain.AnalyzeFiles(files)
	require.NoError(t, err)
	assert.Zero(t, result.Total.TestClasses)
	assert.Equal(t, 2, result.Total.Classes())
	assert.Equal(t, 3, result.Total.Methods())
}

func TestAnalyzeFilesReusesCachedTokens(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.php", `<?php $a = 1;`)

	engine, err := New(config.DefaultConfig())
	require.NoError(t, err)
	defer engine.Close()

	first, err := engine.AnalyzeFiles([]string{path})
	require.NoError(t, err)
	second, err := engine.AnalyzeFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, first.Total.LogicalLines, second.Total.LogicalLines)

	require.NoError(t, os.WriteFile(path, []byte(`<?php $a = 1; $b = 2;`), 0644))
	third, err := engine.AnalyzeFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 2, third.Total.LogicalLines)
}

func TestAnalyzeFilesTreeSitter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.php", `<?php
class A {
    public function run($x) {
        if ($x && $x > 1) { return $this->go(); }
        return null;
    }
}
`)

	cfg := config.DefaultConfig()
	cfg.Analysis.Tokenizer = "treesitter"
	engine, err := New(cfg)
	require.NoError(t, err)
	defer engine.Close()
	assert.Equal(t, "treesitter", engine.TokenizerName())

	result, err := engine.AnalyzeFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total.NonFinalClasses)
	assert.Equal(t, 1, result.Total.PublicMethods)
	assert.Equal(t, 3, result.Total.Complexity)
	assert.Equal(t, 1, result.Total.NonStaticMethodCalls)
}

func TestAnalyzeSampleProject(t *testing.T) {
	engine, err := New(config.DefaultConfig())
	require.NoError(t, err)
	defer engine.Close()

	path := filepath.Join("..", "..", "testdata", "sample.php")
	result, err := engine.AnalyzeFiles([]string{path})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	c := result.PerFile[path]

	assert.Equal(t, []string{`Shop\Billing`}, c.Namespaces.Names())
	assert.Equal(t, 1, c.AbstractClasses)
	assert.Equal(t, 1, c.FinalClasses)
	assert.Equal(t, 5, c.Methods())
	assert.Equal(t, 4, c.PublicMethods)
	assert.Equal(t, 1, c.ProtectedMethods)
	assert.Equal(t, 1, c.StaticMethods)
	assert.Equal(t, []int{2, 3}, c.MethodsPerClass)
	assert.Equal(t, 1, c.NamedFunctions)
	assert.Equal(t, 1, c.AnonymousFunctions)

	assert.Equal(t, 1, c.GlobalConstants)
	assert.Equal(t, []string{"TAX_RATE"}, c.ConstantNames.Names())
	assert.Equal(t, 1, c.PublicClassConstants)
	assert.Equal(t, 1, c.NonPublicClassConstants)

	assert.Equal(t, 7, c.Complexity)
	assert.Equal(t, 2, c.StaticAttributeAccesses)
	assert.Equal(t, 6, c.NonStaticAttributeAccesses)
	assert.Equal(t, 3, c.NonStaticMethodCalls)
	assert.Zero(t, c.StaticMethodCalls)
	assert.Equal(t, 1, c.SuperGlobalVariableAccesses)
	assert.Equal(t, 3, c.CommentLines)
}
