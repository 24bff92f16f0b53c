package tally

import (
	"github.com/google/uuid"

	"onegov.dev/electionday/internal/model"
)

// HagenbachBischoff distributes seats proportionally to votes. The first
// distribution uses the quota floor(total/(seats+1))+1, the remaining seats
// go one by one to the group with the highest votes/(seats+1). Ties are
// broken by the larger remainder, then by position.
func HagenbachBischoff(seats int, votes []int) []int {
	out := make([]int, len(votes))
	total := 0
	for _, v := range votes {
		total += v
	}
	if seats <= 0 || total <= 0 {
		return out
	}

	quota := total/(seats+1) + 1
	distributed := 0
	for i, v := range votes {
		out[i] = v / quota
		distributed += out[i]
	}

	for ; distributed < seats; distributed++ {
		best := -1
		for i, v := range votes {
			if v <= 0 {
				continue
			}
			if best == -1 || beats(v, out[i], votes[best], out[best], quota) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		out[best]++
	}
	return out
}

// beats compares v/(s+1) against w/(t+1) without floats.
func beats(v, s, w, t, quota int) bool {
	left, right := v*(t+1), w*(s+1)
	if left != right {
		return left > right
	}
	return v%quota > w%quota
}

// Apportion distributes the mandates of an election across its top level
// connections (lists without connection are groups of their own), then
// within each connection to its subconnections and lists, then within the
// subconnections to their lists. It returns the seats per list.
func Apportion(a *Aggregate, mandates int) map[uuid.UUID]int {
	votes := ListVotes(a)

	type group struct {
		votes int
		lists []*model.List
		subs  []*group
	}

	var (
		top      []*group
		byConnID = map[uuid.UUID]*group{}
	)
	for _, c := range a.Connections {
		byConnID[c.ID] = &group{}
	}
	// subconnections whose parent is unknown compete as top level groups
	for _, c := range a.Connections {
		g := byConnID[c.ID]
		if parent, ok := byConnID[c.ParentID.UUID]; c.ParentID.Valid && ok && parent != g {
			parent.subs = append(parent.subs, g)
			continue
		}
		top = append(top, g)
	}
	for _, l := range a.Lists {
		if g, ok := byConnID[l.ConnectionID.UUID]; l.ConnectionID.Valid && ok {
			g.lists = append(g.lists, l)
			continue
		}
		top = append(top, &group{lists: []*model.List{l}})
	}

	var sum func(g *group) int
	sum = func(g *group) int {
		g.votes = 0
		for _, l := range g.lists {
			g.votes += votes[l.ID]
		}
		for _, s := range g.subs {
			g.votes += sum(s)
		}
		return g.votes
	}

	seats := map[uuid.UUID]int{}
	var distribute func(groups []*group, n int)
	distribute = func(groups []*group, n int) {
		vs := make([]int, len(groups))
		for i, g := range groups {
			vs[i] = sum(g)
		}
		for i, s := range HagenbachBischoff(n, vs) {
			g := groups[i]
			if len(g.subs) == 0 && len(g.lists) == 1 {
				seats[g.lists[0].ID] = s
				continue
			}
			var children []*group
			for _, l := range g.lists {
				children = append(children, &group{lists: []*model.List{l}})
			}
			children = append(children, g.subs...)
			distribute(children, s)
		}
	}
	distribute(top, mandates)

	for _, l := range a.Lists {
		if _, ok := seats[l.ID]; !ok {
			seats[l.ID] = 0
		}
	}
	return seats
}
