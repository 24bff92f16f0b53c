// Package tree manages ordered adjacency lists, such as the pages of the
// site. Siblings are kept sorted alphabetically by title for as long as
// nobody orders them by hand.
package tree

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"onegov.dev/electionday/internal/pkg/textutil"
)

var (
	ErrNameNotNormalized = errors.New("tree: the given name was not normalized")
	ErrDuplicateName     = errors.New("tree: a sibling with this name exists")
	ErrMoveToSelf        = errors.New("tree: cannot move a node relative to itself")
	ErrDifferentParents  = errors.New("tree: subject and target must have the same parent")
)

type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

func (d Direction) Valid() bool {
	return d == Above || d == Below
}

type Collection struct {
	store Store
}

func New(store Store) *Collection {
	return &Collection{store: store}
}

// SortKey is what siblings are sorted by.
func SortKey(n *Node) string {
	return textutil.NormalizeForURL(n.Title)
}

func (c *Collection) Roots(ctx context.Context) ([]*Node, error) {
	return c.store.Children(ctx, nil)
}

func (c *Collection) Children(ctx context.Context, node *Node) ([]*Node, error) {
	return c.store.Children(ctx, &node.ID)
}

func (c *Collection) ByID(ctx context.Context, id int64) (*Node, error) {
	return c.store.Get(ctx, id)
}

// ByPath walks the tree by names, e.g. "documents/license". Leading and
// trailing slashes are ignored. If ensureType is set, nodes of other types
// are not found.
func (c *Collection) ByPath(ctx context.Context, path, ensureType string) (*Node, error) {
	fragments := strings.Split(strings.Trim(path, "/"), "/")

	var (
		node     *Node
		parentID *int64
	)
	for _, name := range fragments {
		n, err := c.store.ChildByName(ctx, parentID, name)
		if err != nil {
			return nil, err
		}
		node = n
		parentID = &n.ID
	}

	if ensureType != "" && node.Type != ensureType {
		return nil, ErrNotFound
	}
	return node, nil
}

func parentIDOf(parent *Node) *int64 {
	if parent == nil {
		return nil
	}
	id := parent.ID
	return &id
}

// UniqueChildName normalizes name and appends a number until it is unique
// among the children of parent, e.g. root, root-1, root-2.
func (c *Collection) UniqueChildName(ctx context.Context, name string, parent *Node) (string, error) {
	name = textutil.NormalizeForURL(name)
	if name == "" {
		name = "page"
	}

	siblings, err := c.store.Children(ctx, parentIDOf(parent))
	if err != nil {
		return "", err
	}
	names := make(map[string]struct{}, len(siblings))
	for _, s := range siblings {
		names[s.Name] = struct{}{}
	}

	for {
		if _, taken := names[name]; !taken {
			return name, nil
		}
		name = textutil.IncrementName(name)
	}
}

type AddOptions struct {
	// Name defaults to the unique child name derived from the title.
	Name string
	Type string
	// Order disables the alphabetical sorting of the siblings.
	Order *int
}

// Add adds a node below parent, or a root node if parent is nil.
func (c *Collection) Add(ctx context.Context, parent *Node, title string, opts AddOptions) (*Node, error) {
	name := opts.Name
	if name == "" {
		var err error
		if name, err = c.UniqueChildName(ctx, title, parent); err != nil {
			return nil, err
		}
	} else if textutil.NormalizeForURL(name) != name {
		return nil, ErrNameNotNormalized
	}

	node := &Node{
		ParentID: parentIDOf(parent),
		Name:     name,
		Title:    title,
		Type:     opts.Type,
		Order:    DefaultOrder,
	}
	if opts.Order != nil {
		node.Order = *opts.Order
	}
	if err := c.store.Insert(ctx, node); err != nil {
		return nil, err
	}
	if opts.Order != nil {
		return node, nil
	}

	siblings, err := c.store.Children(ctx, node.ParentID)
	if err != nil {
		return nil, err
	}
	others := make([]*Node, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != node.ID {
			others = append(others, s)
		}
	}
	if textutil.IsSorted(others, SortKey) {
		if err := c.sortSiblings(ctx, siblings, SortKey); err != nil {
			return nil, err
		}
		for _, s := range siblings {
			if s.ID == node.ID {
				node.Order = s.Order
			}
		}
	}
	return node, nil
}

func (c *Collection) AddRoot(ctx context.Context, title string, opts AddOptions) (*Node, error) {
	return c.Add(ctx, nil, title, opts)
}

// AddOrGet returns the child with the given name (derived from the title if
// empty), adding it if it does not exist.
func (c *Collection) AddOrGet(ctx context.Context, parent *Node, title, name string) (*Node, error) {
	if name == "" {
		name = textutil.NormalizeForURL(title)
	}
	node, err := c.store.ChildByName(ctx, parentIDOf(parent), name)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return c.Add(ctx, parent, title, AddOptions{Name: name})
}

func (c *Collection) AddOrGetRoot(ctx context.Context, title, name string) (*Node, error) {
	return c.AddOrGet(ctx, nil, title, name)
}

// Delete removes the node and all of its descendants.
func (c *Collection) Delete(ctx context.Context, node *Node) error {
	return c.store.DeleteSubtree(ctx, node.ID)
}

func (c *Collection) MoveAbove(ctx context.Context, subject, target *Node) error {
	return c.Move(ctx, subject, target, Above)
}

func (c *Collection) MoveBelow(ctx context.Context, subject, target *Node) error {
	return c.Move(ctx, subject, target, Below)
}

// Move puts subject right above or below target. Both need to have the same
// parent. The siblings are renumbered from 0.
func (c *Collection) Move(ctx context.Context, subject, target *Node, direction Direction) error {
	if !direction.Valid() {
		return errors.Errorf("tree: invalid direction %q", direction)
	}
	if subject.ID == target.ID {
		return ErrMoveToSelf
	}
	if !sameParent(subject.ParentID, target.ParentID) {
		return ErrDifferentParents
	}

	siblings, err := c.store.Children(ctx, target.ParentID)
	if err != nil {
		return err
	}

	var moved *Node
	for _, s := range siblings {
		if s.ID == subject.ID {
			moved = s
		}
	}
	if moved == nil {
		return ErrNotFound
	}

	ordered := make([]*Node, 0, len(siblings))
	for _, s := range siblings {
		switch {
		case s.ID == subject.ID:
			continue
		case s.ID == target.ID && direction == Above:
			ordered = append(ordered, moved, s)
		case s.ID == target.ID && direction == Below:
			ordered = append(ordered, s, moved)
		default:
			ordered = append(ordered, s)
		}
	}

	for i, s := range ordered {
		s.Order = i
	}
	if err := c.store.UpdateOrders(ctx, ordered); err != nil {
		return err
	}
	subject.Order = moved.Order
	for _, s := range ordered {
		if s.ID == target.ID {
			target.Order = s.Order
		}
	}
	return nil
}

// Rename changes the title. If the siblings were sorted before, they are
// sorted by the new title afterwards.
func (c *Collection) Rename(ctx context.Context, node *Node, title string) error {
	siblings, err := c.store.Children(ctx, node.ParentID)
	if err != nil {
		return err
	}

	oldTitle := node.Title
	wasSorted := textutil.IsSorted(siblings, func(n *Node) string {
		if n.ID == node.ID {
			return textutil.NormalizeForURL(oldTitle)
		}
		return SortKey(n)
	})

	node.Title = title
	if err := c.store.Update(ctx, node); err != nil {
		return err
	}
	if !wasSorted {
		return nil
	}

	for _, s := range siblings {
		if s.ID == node.ID {
			s.Title = title
		}
	}
	if err := c.sortSiblings(ctx, siblings, SortKey); err != nil {
		return err
	}
	for _, s := range siblings {
		if s.ID == node.ID {
			node.Order = s.Order
		}
	}
	return nil
}

// sortSiblings sorts stably by key and writes the new order, starting at 0.
func (c *Collection) sortSiblings(ctx context.Context, siblings []*Node, key func(*Node) string) error {
	sort.SliceStable(siblings, func(i, j int) bool {
		return key(siblings[i]) < key(siblings[j])
	})
	for i, s := range siblings {
		s.Order = i
	}
	return c.store.UpdateOrders(ctx, siblings)
}

// Ancestors returns the ancestors of node, the root first.
func (c *Collection) Ancestors(ctx context.Context, node *Node) ([]*Node, error) {
	var out []*Node
	for parentID := node.ParentID; parentID != nil; {
		parent, err := c.store.Get(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		out = append([]*Node{parent}, out...)
		parentID = parent.ParentID
	}
	return out, nil
}

func (c *Collection) Root(ctx context.Context, node *Node) (*Node, error) {
	ancestors, err := c.Ancestors(ctx, node)
	if err != nil {
		return nil, err
	}
	if len(ancestors) == 0 {
		return node, nil
	}
	return ancestors[0], nil
}

// Siblings returns the nodes sharing the parent of node, node included.
func (c *Collection) Siblings(ctx context.Context, node *Node) ([]*Node, error) {
	return c.store.Children(ctx, node.ParentID)
}

// Path returns the names from the root down to node, joined by slashes.
func (c *Collection) Path(ctx context.Context, node *Node) (string, error) {
	ancestors, err := c.Ancestors(ctx, node)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		names = append(names, a.Name)
	}
	return strings.Join(append(names, node.Name), "/"), nil
}
