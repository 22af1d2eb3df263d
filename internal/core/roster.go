package core

import (
	"sort"

	"github.com/dkeye/guessthesong/internal/domain"
)

// Roster is the ordered set of active players. Players who leave keep
// their score and get it back when they rejoin. Not safe for concurrent
// use: the owning Session serializes access.
type Roster struct {
	known  map[domain.UserID]*domain.Player
	active []domain.UserID
}

func NewRoster() *Roster {
	return &Roster{known: make(map[domain.UserID]*domain.Player)}
}

// Add activates p and returns the roster's instance for that user.
func (r *Roster) Add(p *domain.Player) *domain.Player {
	existing, ok := r.known[p.ID]
	if !ok {
		existing = p
		r.known[p.ID] = p
	}
	if !r.Has(p.ID) {
		r.active = append(r.active, p.ID)
	}
	return existing
}

func (r *Roster) Remove(id domain.UserID) bool {
	for i, uid := range r.active {
		if uid == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Roster) Has(id domain.UserID) bool {
	for _, uid := range r.active {
		if uid == id {
			return true
		}
	}
	return false
}

// Get returns the active player with id.
func (r *Roster) Get(id domain.UserID) (*domain.Player, bool) {
	if !r.Has(id) {
		return nil, false
	}
	return r.known[id], true
}

func (r *Roster) Len() int { return len(r.active) }

// List returns active players in join order.
func (r *Roster) List() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.active))
	for _, id := range r.active {
		out = append(out, r.known[id])
	}
	return out
}

// Standings ranks active players by points; ties keep join order.
func (r *Roster) Standings() []*domain.Player {
	out := r.List()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}
