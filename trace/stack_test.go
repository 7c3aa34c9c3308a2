package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSource drives the assembler directly in tests.
type fakeSource struct {
	hook     Hook
	installs int
	removes  int
}

func (s *fakeSource) Install(h Hook) {
	s.hook = h
	s.installs++
}

func (s *fakeSource) Remove() {
	s.hook = nil
	s.removes++
}

func (s *fakeSource) enter(name string, file string, args ...Field) {
	if s.hook != nil {
		s.hook(Event{Kind: EventEnter, Func: name, File: file, Args: args})
	}
}

func (s *fakeSource) exit(result interface{}) {
	if s.hook != nil {
		s.hook(Event{Kind: EventExit, Result: result})
	}
}

func newTestTracer() (*Tracer, *fakeSource, *bytes.Buffer) {
	src := &fakeSource{}
	var buf bytes.Buffer
	tr := New(src)
	tr.SetOutput(&buf)
	return tr, src, &buf
}

func TestOuterInnerScenario(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	src.enter("outer", "app.go", Field{Name: "x", Value: 1})
	src.enter("inner", "app.go", Field{Name: "y", Value: 2})
	src.exit(3)
	src.exit(3)

	require.Len(t, tr.roots, 1)
	root := tr.roots[0]
	require.Equal(t, "outer", root.Name)
	require.Len(t, root.Params, 1)
	require.Equal(t, "x", root.Params[0].Name)
	require.Equal(t, "1", root.Params[0].Value.Text)
	require.Equal(t, "3", root.Return.Text)

	require.Len(t, root.Children, 1)
	inner := root.Children[0]
	require.Equal(t, "inner", inner.Name)
	require.Equal(t, "y", inner.Params[0].Name)
	require.Equal(t, "2", inner.Params[0].Value.Text)
	require.Equal(t, "3", inner.Return.Text)
	require.Empty(t, inner.Children)
}

func preorder(nodes []*Node) []string {
	var names []string
	var walk func(n *Node)
	walk = func(n *Node) {
		names = append(names, n.Name)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return names
}

func TestPreorderMatchesEnterOrder(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	// a(b(c), d), e
	src.enter("a", "app.go")
	src.enter("b", "app.go")
	src.enter("c", "app.go")
	src.exit(nil)
	src.exit(nil)
	src.enter("d", "app.go")
	src.exit(nil)
	src.exit(nil)
	src.enter("e", "app.go")
	src.exit(nil)

	require.Equal(t, []string{"a", "b", "c", "d", "e"}, preorder(tr.roots))
	require.Len(t, tr.roots, 2)
	require.Len(t, tr.roots[0].Children, 2)
	require.Equal(t, "b", tr.roots[0].Children[0].Name)
	require.Equal(t, "d", tr.roots[0].Children[1].Name)
}

func TestStrayExitDropped(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	src.exit(42)
	src.enter("f", "app.go")
	src.exit(1)
	src.exit(99)

	require.Len(t, tr.roots, 1)
	require.Equal(t, "1", tr.roots[0].Return.Text)
	require.Empty(t, tr.stack)
}

func countNodes(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Children)
	}
	return n
}

func TestOverflowGuard(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.cfg.maxDepth = 3
	tr.Start()
	for i := 0; i < 8; i++ {
		src.enter("nested", "app.go")
	}

	require.Equal(t, 3, countNodes(tr.roots))
	// single path of length maxDepth
	require.Len(t, tr.roots, 1)
	node := tr.roots[0]
	depth := 1
	for len(node.Children) > 0 {
		require.Len(t, node.Children, 1)
		node = node.Children[0]
		depth++
	}
	require.Equal(t, 3, depth)
}

func TestOverflowedExitsPopCleanly(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.cfg.maxDepth = 2
	tr.Start()
	src.enter("a", "app.go")
	src.enter("b", "app.go")
	src.enter("c", "app.go") // past the cap, not tracked
	src.exit(3)
	src.exit(2)
	src.exit(1)

	require.Equal(t, []string{"a", "b"}, preorder(tr.roots))
	require.Equal(t, "2", tr.roots[0].Children[0].Return.Text)
	require.Equal(t, "1", tr.roots[0].Return.Text)
}

func TestFilteredCallKeepsSiblingOrder(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	src.enter("parent", "app.go")
	src.enter("first", "app.go")
	src.exit(nil)
	// internal tracer method name, must produce no node
	src.enter("handleEvent", "app.go")
	src.exit(nil)
	src.enter("second", "app.go")
	src.exit(nil)
	src.exit(nil)

	require.Len(t, tr.roots, 1)
	children := tr.roots[0].Children
	require.Equal(t, []string{"first", "second"}, preorder(children))
}

func TestChildOfFilteredCallAttachesToAncestor(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	src.enter("parent", "app.go")
	src.enter("handleEvent", "app.go") // filtered
	src.enter("grandchild", "app.go")
	src.exit(nil)
	src.exit(nil)
	src.exit(nil)

	require.Equal(t, []string{"parent", "grandchild"}, preorder(tr.roots))
}

func TestMultipleTopLevelCallsFormForest(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	src.enter("first", "app.go")
	src.exit(1)
	src.enter("second", "app.go")
	src.exit(2)

	require.Len(t, tr.roots, 2)
	require.Equal(t, "first", tr.roots[0].Name)
	require.Equal(t, "second", tr.roots[1].Name)
}

func TestEventsIgnoredWhileIdle(t *testing.T) {
	tr, src, _ := newTestTracer()
	tr.Start()
	hook := src.hook
	tr.Stop()
	// events delivered after Stop must not mutate the session
	hook(Event{Kind: EventEnter, Func: "late", File: "app.go"})
	require.Empty(t, tr.roots)
	require.Equal(t, 1, src.removes)
}
