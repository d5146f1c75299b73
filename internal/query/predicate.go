package query

// Predicate selects fields during a traversal. Returning an error aborts the traversal.
type Predicate func(c Cursor) (bool, error)

// Any matches every field.
func Any() Predicate {
	return func(Cursor) (bool, error) { return true, nil }
}

// NameIs matches fields whose machine name equals name.
func NameIs(name string) Predicate {
	return func(c Cursor) (bool, error) {
		return c.Field.Name == name, nil
	}
}

// ValueIs matches fields whose raw value equals expected byte for byte.
func ValueIs(expected []byte) Predicate {
	want := append([]byte(nil), expected...)
	return func(c Cursor) (bool, error) {
		return ValueMatches(c.Field, want), nil
	}
}

// DisplayValueIs matches fields whose rendered value equals s.
func DisplayValueIs(s string) Predicate {
	return func(c Cursor) (bool, error) {
		return c.Field.DisplayValue == s, nil
	}
}

// And matches when every predicate matches. Evaluation stops at the first false or error.
func And(ps ...Predicate) Predicate {
	return func(c Cursor) (bool, error) {
		for _, p := range ps {
			ok, err := p(c)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Or matches when any predicate matches. Evaluation stops at the first true or error.
func Or(ps ...Predicate) Predicate {
	return func(c Cursor) (bool, error) {
		for _, p := range ps {
			ok, err := p(c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not inverts p. Errors pass through.
func Not(p Predicate) Predicate {
	return func(c Cursor) (bool, error) {
		ok, err := p(c)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// SiblingMatches matches when at least one sibling of the current field (same parent,
// the field itself excluded) satisfies p. The sibling is evaluated with its own cursor,
// so p may itself test siblings or children.
func SiblingMatches(p Predicate) Predicate {
	return func(c Cursor) (bool, error) {
		for i, f := range c.siblings {
			if i == c.index || f == nil {
				continue
			}
			ok, err := p(c.sibling(i))
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// HasChild matches when at least one direct child satisfies p.
func HasChild(p Predicate) Predicate {
	return func(c Cursor) (bool, error) {
		for _, child := range c.children() {
			ok, err := p(child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}
