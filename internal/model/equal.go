package model

// DeepEqual reports whether a and b have the same name, value, and
// recursively equal ordered children and attributes, comparing floats
// within tol. Order matters: children and attributes are compared
// position by position, not as unordered sets.
func DeepEqual(a, b *Node, tol Tolerance) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.name != b.name {
		return false
	}
	if !a.value.Equal(b.value, tol) {
		return false
	}
	if len(a.attrs) != len(b.attrs) {
		return false
	}
	for i := range a.attrs {
		if a.attrs[i].name != b.attrs[i].name {
			return false
		}
		if !a.attrs[i].value.Equal(b.attrs[i].value, tol) {
			return false
		}
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !DeepEqual(a.children[i], b.children[i], tol) {
			return false
		}
	}
	return true
}
