package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeNameNormalization(t *testing.T) {
	n := NewNode("   ", Null())
	require.Equal(t, "", n.Name())

	n.SetName("\t\n")
	require.Equal(t, "", n.Name())

	n.SetName("User")
	require.Equal(t, "User", n.Name())
}

func TestAddDetachesFromPreviousParent(t *testing.T) {
	a := NewNode("a", Null())
	b := NewNode("b", Null())
	child := NewNode("child", Null())

	_, err := a.Add(child)
	require.NoError(t, err)
	require.Equal(t, a, child.Parent())
	require.Len(t, a.Children(), 1)

	_, err = b.Add(child)
	require.NoError(t, err)
	require.Equal(t, b, child.Parent())
	require.Len(t, a.Children(), 0)
	require.Len(t, b.Children(), 1)
}

func TestAddRejectsSelf(t *testing.T) {
	n := NewNode("n", Null())
	_, err := n.Add(n)
	require.Error(t, err)
}

func TestAddRejectsAncestor(t *testing.T) {
	grandparent := NewNode("gp", Null())
	parent := NewNode("p", Null())
	child := NewNode("c", Null())

	_, err := grandparent.Add(parent)
	require.NoError(t, err)
	_, err = parent.Add(child)
	require.NoError(t, err)

	_, err = child.Add(grandparent)
	require.Error(t, err)
}

func TestInsertClampsOutOfRangeIndex(t *testing.T) {
	parent := NewNode("p", Null())
	_, _ = parent.Add(NewNode("x", Null()))

	err := parent.Insert(100, NewNode("y", Null()))
	require.NoError(t, err)
	require.Len(t, parent.Children(), 1)
}

func TestInsertAtIndex(t *testing.T) {
	parent := NewNode("p", Null())
	first, _ := parent.Add(NewNode("first", Null()))
	require.Equal(t, 0, first)

	mid := NewNode("mid", Null())
	require.NoError(t, parent.Insert(0, mid))
	require.Equal(t, "mid", parent.Children()[0].Name())
	require.Equal(t, "first", parent.Children()[1].Name())
}

func TestRemoveClearsParent(t *testing.T) {
	parent := NewNode("p", Null())
	child := NewNode("c", Null())
	_, _ = parent.Add(child)

	require.True(t, parent.Remove(child))
	require.Nil(t, child.Parent())
	require.Len(t, parent.Children(), 0)
	require.False(t, parent.Remove(child))
}

func TestAddRangeAllOrNothing(t *testing.T) {
	parent := NewNode("p", Null())
	ok1 := NewNode("ok1", Null())
	ok2 := NewNode("ok2", Null())

	err := parent.AddRange([]*Node{ok1, ok2, parent})
	require.Error(t, err)
	require.Len(t, parent.Children(), 0, "no child should be attached when any fails the cycle check")

	require.NoError(t, parent.AddRange([]*Node{ok1, ok2}))
	require.Len(t, parent.Children(), 2)
}

func TestChildAndAttributeLookupByName(t *testing.T) {
	parent := NewNode("p", Null())
	_, _ = parent.Add(NewNode("User", String("mike")))
	_, _ = parent.Add(NewNode("User", String("jeremy")))

	got, ok := parent.ChildByName("User")
	require.True(t, ok)
	s, _ := got.Value().String()
	require.Equal(t, "mike", s, "by-name lookup returns the first match in insertion order")

	_, ok = parent.ChildByName("Missing")
	require.False(t, ok)

	parent.AddAttribute(NewAttribute("Age", I32(35)))
	attr, ok := parent.AttributeByName("Age")
	require.True(t, ok)
	v, _ := attr.Value().Int()
	require.Equal(t, int64(35), v)
}

func TestVersionIsRootAuthoritative(t *testing.T) {
	root := NewNode("root", Null())
	root.SetVersion(2)
	child := NewNode("child", Null())
	_, _ = root.Add(child)
	grandchild := NewNode("grandchild", Null())
	_, _ = child.Add(grandchild)

	require.Equal(t, uint8(2), grandchild.Version())
	require.Equal(t, uint8(2), child.Version())
}

func TestCloneSelectors(t *testing.T) {
	n := NewNode("parent", String("v"))
	n.AddAttribute(NewAttribute("a", I32(1)))
	_, _ = n.Add(NewNode("child", Null()))

	bare := n.Clone(false, false, false, false)
	require.Equal(t, "", bare.Name())
	require.Equal(t, KindNull, bare.Value().Kind())
	require.Len(t, bare.Attributes(), 0)
	require.Len(t, bare.Children(), 0)
	require.True(t, bare.IsRoot())

	full := n.Clone(true, true, true, true)
	require.Equal(t, "parent", full.Name())
	require.Len(t, full.Attributes(), 1)
	require.Len(t, full.Children(), 1)
	require.Equal(t, full, full.Children()[0].Parent())
}

func TestDeepEqualOrderMattersAndToleratesFloats(t *testing.T) {
	a := NewNode("r", Null())
	_, _ = a.Add(NewNode("x", F64(1.0)))
	_, _ = a.Add(NewNode("y", F64(2.0)))

	b := NewNode("r", Null())
	_, _ = b.Add(NewNode("y", F64(2.0)))
	_, _ = b.Add(NewNode("x", F64(1.0)))

	require.False(t, DeepEqual(a, b, DefaultTolerance), "children compared as an ordered sequence, not a set")

	c := NewNode("r", Null())
	_, _ = c.Add(NewNode("x", F64(1.0001)))
	_, _ = c.Add(NewNode("y", F64(2.0)))
	require.True(t, DeepEqual(a, c, DefaultTolerance))

	d := NewNode("r", Null())
	_, _ = d.Add(NewNode("x", F64(1.1)))
	_, _ = d.Add(NewNode("y", F64(2.0)))
	require.False(t, DeepEqual(a, d, DefaultTolerance))
}
