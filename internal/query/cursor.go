package query

import "capdissect/internal/models"

// Cursor is the traversal position handed to a Predicate: the field under visit plus
// the context the tree itself does not store (its parent's child list and its ancestors).
//
// A Cursor is only valid for the duration of the predicate call that receives it.
type Cursor struct {
	Field *models.Field

	siblings  []*models.Field // parent's full child list, Field included
	index     int             // position of Field in siblings
	ancestors []*models.Field // root first
}

// Siblings returns the other children of the field's parent in tree order, excluding
// the field itself. Root fields are siblings of the other roots.
func (c Cursor) Siblings() []*models.Field {
	if len(c.siblings) <= 1 {
		return nil
	}
	out := make([]*models.Field, 0, len(c.siblings)-1)
	for i, f := range c.siblings {
		if i != c.index {
			out = append(out, f)
		}
	}
	return out
}

// Parent returns the field's parent, or nil for a root field.
func (c Cursor) Parent() *models.Field {
	if len(c.ancestors) == 0 {
		return nil
	}
	return c.ancestors[len(c.ancestors)-1]
}

// Ancestors returns a copy of the chain from the root down to the parent.
func (c Cursor) Ancestors() []*models.Field {
	out := make([]*models.Field, len(c.ancestors))
	copy(out, c.ancestors)
	return out
}

// Depth is 0 for root fields.
func (c Cursor) Depth() int {
	return len(c.ancestors)
}

func (c Cursor) sibling(i int) Cursor {
	return Cursor{Field: c.siblings[i], siblings: c.siblings, index: i, ancestors: c.ancestors}
}

func (c Cursor) children() []Cursor {
	if c.Field == nil || len(c.Field.Children) == 0 {
		return nil
	}
	anc := make([]*models.Field, len(c.ancestors), len(c.ancestors)+1)
	copy(anc, c.ancestors)
	anc = append(anc, c.Field)

	out := make([]Cursor, 0, len(c.Field.Children))
	for i, f := range c.Field.Children {
		if f == nil {
			continue
		}
		out = append(out, Cursor{Field: f, siblings: c.Field.Children, index: i, ancestors: anc})
	}
	return out
}

// walk visits nodes depth-first, pre-order: a node, then its children left to right.
// visit returns stop=true to end the whole traversal.
func walk(nodes []*models.Field, ancestors []*models.Field, visit func(Cursor) (bool, error)) (bool, error) {
	for i, f := range nodes {
		if f == nil {
			continue
		}
		stop, err := visit(Cursor{Field: f, siblings: nodes, index: i, ancestors: ancestors})
		if err != nil || stop {
			return true, err
		}
		if len(f.Children) == 0 {
			continue
		}
		if stop, err := walk(f.Children, append(ancestors, f), visit); err != nil || stop {
			return true, err
		}
	}
	return false, nil
}
