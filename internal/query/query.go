// Package query searches a packet's field tree without callers writing their own recursion.
//
// Every traversal is depth-first and pre-order: a field is visited before its children,
// and earlier siblings before later ones. Predicate and visitor errors stop the traversal
// at once and are returned to the caller.
package query

import (
	"bytes"
	"capdissect/internal/models"
	"fmt"
)

// FindFirst returns the first field in tree satisfying p, or nil if none does.
// No field is visited after the match.
func FindFirst(tree models.Tree, p Predicate) (*models.Field, error) {
	return findFirst(tree, nil, p)
}

// FindFirstDescendant is FindFirst restricted to the fields below parent; parent itself
// is not a candidate.
func FindFirstDescendant(parent *models.Field, p Predicate) (*models.Field, error) {
	if parent == nil {
		return nil, nil
	}
	return findFirst(parent.Children, []*models.Field{parent}, p)
}

// FindFirstDescendantByName returns the first field below parent named name, or nil.
func FindFirstDescendantByName(parent *models.Field, name string) *models.Field {
	f, _ := FindFirstDescendant(parent, NameIs(name))
	return f
}

// DescendantExists reports whether any field below parent is named name.
func DescendantExists(parent *models.Field, name string) bool {
	return FindFirstDescendantByName(parent, name) != nil
}

// DescendantMatches reports whether any field below parent satisfies p.
func DescendantMatches(parent *models.Field, p Predicate) (bool, error) {
	f, err := FindFirstDescendant(parent, p)
	return f != nil, err
}

func findFirst(nodes []*models.Field, ancestors []*models.Field, p Predicate) (*models.Field, error) {
	var match *models.Field
	_, err := walk(nodes, ancestors, func(c Cursor) (bool, error) {
		ok, err := p(c)
		if err != nil {
			return true, fmt.Errorf("query: predicate failed on field %q: %w", c.Field.Name, err)
		}
		if ok {
			match = c.Field
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// FindFirstByName returns the first field named name, or nil.
func FindFirstByName(tree models.Tree, name string) *models.Field {
	// NameIs never fails, so the error is always nil.
	f, _ := FindFirst(tree, NameIs(name))
	return f
}

// Exists reports whether any field in tree is named name.
func Exists(tree models.Tree, name string) bool {
	return FindFirstByName(tree, name) != nil
}

// Matches reports whether any field in tree satisfies p.
func Matches(tree models.Tree, p Predicate) (bool, error) {
	f, err := FindFirst(tree, p)
	return f != nil, err
}

// ForEachMatching calls fn for every field named name, in traversal order.
func ForEachMatching(tree models.Tree, name string, fn func(*models.Field) error) error {
	return forEach(tree, nil, NameIs(name), fn)
}

// ForEachDescendant calls fn for every field below parent named name.
func ForEachDescendant(parent *models.Field, name string, fn func(*models.Field) error) error {
	if parent == nil {
		return nil
	}
	return forEach(parent.Children, []*models.Field{parent}, NameIs(name), fn)
}

// ForEachDescendantMatch calls fn for every field below parent satisfying p.
func ForEachDescendantMatch(parent *models.Field, p Predicate, fn func(*models.Field) error) error {
	if parent == nil {
		return nil
	}
	return forEach(parent.Children, []*models.Field{parent}, p, fn)
}

// ForEachMatch calls fn for every field satisfying p, in traversal order.
func ForEachMatch(tree models.Tree, p Predicate, fn func(*models.Field) error) error {
	return forEach(tree, nil, p, fn)
}

func forEach(nodes []*models.Field, ancestors []*models.Field, p Predicate, fn func(*models.Field) error) error {
	_, err := walk(nodes, ancestors, func(c Cursor) (bool, error) {
		ok, err := p(c)
		if err != nil {
			return true, fmt.Errorf("query: predicate failed on field %q: %w", c.Field.Name, err)
		}
		if !ok {
			return false, nil
		}
		if err := fn(c.Field); err != nil {
			return true, err
		}
		return false, nil
	})
	return err
}

// ForEachRoot calls fn once per top-level field, in order. It does not descend.
func ForEachRoot(tree models.Tree, fn func(*models.Field) error) error {
	for _, f := range tree {
		if f == nil {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// ForEachChild calls fn once per direct child of f, in order.
func ForEachChild(f *models.Field, fn func(*models.Field) error) error {
	if f == nil {
		return nil
	}
	return ForEachRoot(f.Children, fn)
}

// ValueMatches reports whether f's raw value equals expected exactly.
func ValueMatches(f *models.Field, expected []byte) bool {
	if f == nil {
		return false
	}
	return bytes.Equal(f.Value, expected)
}
