package analyzer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phpmetrics/internal/context"
	"phpmetrics/internal/lexer"
)

func index(h *ClassHierarchy, src string) {
	h.Index(lexer.NewNative().Tokenize([]byte(src)))
}

func TestIndexRecordsNamespacedClasses(t *testing.T) {
	h := NewClassHierarchy(nil)
	index(h, `<?php
namespace App\Models;
class User extends Model {}
class Admin extends \Vendor\Base {}
interface Named {}
trait Loggable {}
$x = User::class;
`)

	assert.Equal(t, 4, h.Len())

	rec, ok := h.Lookup(`app\models\user`)
	require.True(t, ok)
	assert.Equal(t, `app\models\model`, rec.Parent)

	rec, ok = h.Lookup(`app\models\admin`)
	require.True(t, ok)
	assert.Equal(t, `\vendor\base`, rec.Parent)

	rec, ok = h.Lookup(`app\models\named`)
	require.True(t, ok)
	assert.Empty(t, rec.Parent)

	_, ok = h.Lookup("user")
	assert.False(t, ok)
}

func TestIsTestClassWalksAncestry(t *testing.T) {
	h := NewClassHierarchy([]string{`\PHPUnit\Framework\TestCase`})
	h.Record(ClassRecord{Name: "base", Parent: `\phpunit\framework\testcase`})
	h.Record(ClassRecord{Name: "middle", Parent: "base"})
	h.Record(ClassRecord{Name: "leaf", Parent: "middle"})
	h.Record(ClassRecord{Name: "plain", Parent: "other"})

	assert.True(t, h.IsTestClass("base"))
	assert.True(t, h.IsTestClass("leaf"))
	assert.False(t, h.IsTestClass("plain"))
	assert.False(t, h.IsTestClass("unknown"))
}

func TestIsTestClassSuffixFallback(t *testing.T) {
	h := NewClassHierarchy([]string{"a"})
	h.Record(ClassRecord{Name: "footest", Parent: "mytestcase"})
	h.Record(ClassRecord{Name: "deep", Parent: "footest"})

	assert.True(t, h.IsTestClass("footest"))
	// only the immediate parent is checked for the suffix
	assert.False(t, h.IsTestClass("deep"))
}

func TestIsTestClassCycleTerminates(t *testing.T) {
	h := NewClassHierarchy([]string{"a"})
	index(h, `<?php
class X extends Y {}
class Y extends X {}
class Self extends Self {}
`)

	assert.False(t, h.IsTestClass("x"))
	assert.False(t, h.IsTestClass("x"))
	assert.False(t, h.IsTestClass("self"))
}

func TestIsTestClassRespectsHopBound(t *testing.T) {
	h := NewClassHierarchy([]string{"root"})
	h.Record(ClassRecord{Name: "c0", Parent: "root"})
	for i := 1; i <= maxAncestry+5; i++ {
		h.Record(ClassRecord{Name: fmt.Sprintf("c%d", i), Parent: fmt.Sprintf("c%d", i-1)})
	}

	assert.True(t, h.IsTestClass("c10"))
	assert.False(t, h.IsTestClass(fmt.Sprintf("c%d", maxAncestry+5)))
}

func TestIndexConcurrentWriters(t *testing.T) {
	h := NewClassHierarchy(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			index(h, fmt.Sprintf("<?php class C%d extends Base {}", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, h.Len())
}

func TestScopeTracker(t *testing.T) {
	var s ScopeTracker

	_, ok := s.CloseBlock()
	assert.False(t, ok)
	assert.Zero(t, s.Depth())

	s.EnterBlock(context.Class("a"))
	s.EnterBlock(context.Function("f"))
	s.EnterBlock(context.Opaque())
	s.EnterBlock(context.Anonymous())
	assert.Equal(t, 4, s.Depth())

	name, ok := s.CurrentFunction()
	require.True(t, ok)
	assert.Equal(t, "f", name)
	name, ok = s.CurrentClass()
	require.True(t, ok)
	assert.Equal(t, "a", name)

	frame, ok := s.CloseBlock()
	require.True(t, ok)
	assert.Equal(t, context.FrameAnonymous, frame.Kind)
	s.CloseBlock()
	frame, _ = s.CloseBlock()
	assert.Equal(t, context.Function("f"), frame)

	_, ok = s.CurrentFunction()
	assert.False(t, ok)
	assert.Equal(t, 1, s.Depth())
}
