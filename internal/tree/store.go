package tree

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// DefaultOrder puts new nodes at the end of their siblings.
const DefaultOrder = 1 << 16

var ErrNotFound = errors.New("tree: node not found")

type Node struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parentId"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Type     string `json:"type,omitempty"`
	Order    int    `json:"order"`
}

func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Store persists nodes. Children are returned ordered by (order, id). Update
// writes name, title and type only, the order is changed by UpdateOrders.
type Store interface {
	Get(ctx context.Context, id int64) (*Node, error)
	Children(ctx context.Context, parentID *int64) ([]*Node, error)
	ChildByName(ctx context.Context, parentID *int64, name string) (*Node, error)
	Insert(ctx context.Context, node *Node) error
	Update(ctx context.Context, node *Node) error
	UpdateOrders(ctx context.Context, nodes []*Node) error
	DeleteSubtree(ctx context.Context, id int64) error
}

// MemoryStore keeps nodes in memory. It hands out copies, so callers never
// share state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[int64]Node
	nextID int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: map[int64]Node{}}
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (s *MemoryStore) Children(_ context.Context, parentID *int64) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Node
	for _, n := range s.nodes {
		if sameParent(n.ParentID, parentID) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ChildByName(_ context.Context, parentID *int64, name string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.nodes {
		if sameParent(n.ParentID, parentID) && n.Name == name {
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.ParentID != nil {
		if _, ok := s.nodes[*node.ParentID]; !ok {
			return errors.Wrapf(ErrNotFound, "parent %d", *node.ParentID)
		}
	}
	for _, n := range s.nodes {
		if sameParent(n.ParentID, node.ParentID) && n.Name == node.Name {
			return ErrDuplicateName
		}
	}

	s.nextID++
	node.ID = s.nextID
	s.nodes[node.ID] = *node
	return nil
}

func (s *MemoryStore) Update(_ context.Context, node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[node.ID]
	if !ok {
		return ErrNotFound
	}
	n.Name, n.Title, n.Type = node.Name, node.Title, node.Type
	s.nodes[node.ID] = n
	return nil
}

func (s *MemoryStore) UpdateOrders(_ context.Context, nodes []*Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range nodes {
		n, ok := s.nodes[node.ID]
		if !ok {
			return ErrNotFound
		}
		n.Order = node.Order
		s.nodes[node.ID] = n
	}
	return nil
}

func (s *MemoryStore) DeleteSubtree(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return ErrNotFound
	}

	doomed := []int64{id}
	for len(doomed) > 0 {
		current := doomed[0]
		doomed = doomed[1:]
		delete(s.nodes, current)
		for _, n := range s.nodes {
			if n.ParentID != nil && *n.ParentID == current {
				doomed = append(doomed, n.ID)
			}
		}
	}
	return nil
}
