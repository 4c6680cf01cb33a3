package store

import (
	"context"
	"fmt"
)

// Layout is a read-only snapshot of how one store is organised: its section
// names, which of them are ordered and where each ingredient is shelved.
type Layout struct {
	StoreID   int64
	StoreName string
	// Names holds every section of the store by id.
	Names map[int64]string
	// Order lists the ids of ordered sections, first aisle first.
	Order []int64
	// Mapping maps ingredient id to section id.
	Mapping map[int64]int64
}

// SectionFor returns the section an ingredient is shelved in. ok is false
// when the ingredient is unmapped or mapped to a section the layout does
// not know.
func (l *Layout) SectionFor(ingredientID int64) (id int64, name string, ok bool) {
	if l == nil || ingredientID == 0 {
		return 0, "", false
	}
	sectionID, mapped := l.Mapping[ingredientID]
	if !mapped {
		return 0, "", false
	}
	name, known := l.Names[sectionID]
	if !known {
		return 0, "", false
	}
	return sectionID, name, true
}

// NewLayout builds a Layout from sections and an ingredient mapping.
func NewLayout(s Store, sections []Section, mapping map[int64]int64) *Layout {
	l := &Layout{
		StoreID:   s.ID,
		StoreName: s.Name,
		Names:     make(map[int64]string, len(sections)),
		Mapping:   mapping,
	}
	if l.Mapping == nil {
		l.Mapping = map[int64]int64{}
	}
	for _, sec := range sections {
		l.Names[sec.ID] = sec.Name
		if sec.Position != nil {
			l.Order = append(l.Order, sec.ID)
		}
	}
	return l
}

// Layout loads the snapshot for a store. It returns nil, nil when the store
// does not exist.
func (r *Repository) Layout(ctx context.Context, storeID int64) (*Layout, error) {
	s, err := r.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	sections, err := r.Sections(ctx, storeID)
	if err != nil {
		return nil, err
	}
	mapping, err := r.Mapping(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to build layout for store %d: %w", storeID, err)
	}
	return NewLayout(*s, sections, mapping), nil
}
