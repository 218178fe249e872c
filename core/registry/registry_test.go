package registry

import (
	"fmt"
	"io"
	"testing"

	"github.com/jboxsh/jbox/core/vos"
	"github.com/stretchr/testify/assert"
)

func exitWith(code int) vos.ProcessFunc {
	return func(vos.VOS) int { return code }
}

func ExampleRegistry_ForEach() {
	r := New(0)
	r.Register(&Descriptor{Name: "cd", Summary: "change directory", Kind: Builtin})
	r.Register(&Descriptor{Name: "cat", Summary: "concatenate files", Kind: External})
	r.Register(&Descriptor{Name: "alias", Summary: "define aliases", Kind: Builtin})

	r.ForEach(func(d Descriptor) {
		fmt.Printf("%-6s %-9s %s\n", d.Name, d.Kind, d.Summary)
	})

	// Output: cd     builtin   change directory
	// cat    external  concatenate files
	// alias  builtin   define aliases
}

func TestRegistry_Find(t *testing.T) {
	r := New(0)
	r.Register(&Descriptor{Name: "cat", Kind: External, Run: exitWith(1)})
	r.Register(&Descriptor{Name: "echo", Kind: External, Run: exitWith(2)})

	echo, ok := r.Find("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", echo.Name)
	assert.Equal(t, 2, echo.Run(nil))

	_, ok = r.Find("grep")
	assert.False(t, ok)

	_, ok = r.Find("ECHO")
	assert.False(t, ok, "lookups are case-sensitive")
}

func TestRegistry_duplicates(t *testing.T) {
	r := New(0)
	r.Register(&Descriptor{Name: "dup", Summary: "first"})
	r.Register(&Descriptor{Name: "dup", Summary: "second"})

	found, ok := r.Find("dup")
	assert.True(t, ok)
	assert.Equal(t, "first", found.Summary)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_nil(t *testing.T) {
	r := New(0)
	r.Register(nil)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Dropped())
}

func TestRegistry_capacity(t *testing.T) {
	r := New(3)
	for i := 0; i < 5; i++ {
		r.Register(&Descriptor{Name: fmt.Sprintf("cmd%d", i)})
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 2, r.Dropped())
	for i := 0; i < 5; i++ {
		_, ok := r.Find(fmt.Sprintf("cmd%d", i))
		assert.Equal(t, i < 3, ok, "cmd%d", i)
	}
}

func TestRegistry_defaultCapacity(t *testing.T) {
	r := New(0)
	assert.Equal(t, DefaultCapacity, r.Cap())
	for i := 0; i < DefaultCapacity+10; i++ {
		r.Register(&Descriptor{Name: fmt.Sprintf("cmd%d", i)})
	}
	assert.Equal(t, DefaultCapacity, r.Len())
	assert.Equal(t, 10, r.Dropped())
}

func TestRegistry_immutable(t *testing.T) {
	r := New(0)
	desc := &Descriptor{Name: "pwd", Summary: "original", PrintUsage: func(w io.Writer) {}}
	r.Register(desc)

	desc.Summary = "changed after registration"
	found, _ := r.Find("pwd")
	assert.Equal(t, "original", found.Summary)

	found.Summary = "changed copy"
	again, _ := r.Find("pwd")
	assert.Equal(t, "original", again.Summary)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "builtin", Builtin.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
