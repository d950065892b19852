package entities

import (
	"fmt"

	"parkslot/internal/utils"
)

// CategoryState holds the price, the defined slots and the booked subset of one category.
type CategoryState struct {
	Price  int      `json:"price"`
	Slots  []string `json:"slots"`
	Booked []string `json:"booked"`
}

// Ledger is the persisted booking state of every category.
type Ledger map[Category]*CategoryState

// NewLedger builds the fixed three-category layout with nothing booked.
func NewLedger() Ledger {
	return Ledger{
		CategoryVIP: {
			Price:  500,
			Slots:  utils.SequentialSlotIDs("V", 10),
			Booked: []string{},
		},
		CategoryExecutive: {
			Price:  350,
			Slots:  utils.GridSlotIDs("E", 5, 20),
			Booked: []string{},
		},
		CategoryNormal: {
			Price:  320,
			Slots:  utils.SequentialSlotIDs("N", 11),
			Booked: []string{},
		},
	}
}

func (c *CategoryState) HasSlot(slot string) bool {
	for _, s := range c.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

func (c *CategoryState) IsBooked(slot string) bool {
	for _, s := range c.Booked {
		if s == slot {
			return true
		}
	}
	return false
}

// Available returns the free slots in definition order.
func (c *CategoryState) Available() []string {
	booked := make(map[string]struct{}, len(c.Booked))
	for _, s := range c.Booked {
		booked[s] = struct{}{}
	}
	free := make([]string, 0, len(c.Slots)-len(booked))
	for _, s := range c.Slots {
		if _, ok := booked[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}

func (c *CategoryState) clone() *CategoryState {
	return &CategoryState{
		Price:  c.Price,
		Slots:  append([]string{}, c.Slots...),
		Booked: append([]string{}, c.Booked...),
	}
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for cat, state := range l {
		if state == nil {
			out[cat] = nil
			continue
		}
		out[cat] = state.clone()
	}
	return out
}

// Validate checks that every category is present, slot ids are unique,
// and every booked slot is a defined slot booked only once.
func (l Ledger) Validate() error {
	for _, cat := range Categories {
		state, ok := l[cat]
		if !ok || state == nil {
			return fmt.Errorf("category %q missing", cat)
		}
		if dup, ok := utils.FirstDuplicate(state.Slots); ok {
			return fmt.Errorf("category %q defines slot %q twice", cat, dup)
		}
		if dup, ok := utils.FirstDuplicate(state.Booked); ok {
			return fmt.Errorf("category %q books slot %q twice", cat, dup)
		}
		for _, b := range state.Booked {
			if !state.HasSlot(b) {
				return fmt.Errorf("category %q books undefined slot %q", cat, b)
			}
		}
	}
	if len(l) != len(Categories) {
		return fmt.Errorf("ledger has %d categories, want %d", len(l), len(Categories))
	}
	return nil
}

// Occupancy summarizes one category.
type Occupancy struct {
	Category  Category `json:"category"`
	Price     int      `json:"price"`
	Total     int      `json:"total"`
	Booked    int      `json:"booked"`
	Available int      `json:"available"`
}

// Occupancy returns per-category counts in display order.
func (l Ledger) Occupancy() []Occupancy {
	out := make([]Occupancy, 0, len(Categories))
	for _, cat := range Categories {
		state, ok := l[cat]
		if !ok || state == nil {
			continue
		}
		out = append(out, Occupancy{
			Category:  cat,
			Price:     state.Price,
			Total:     len(state.Slots),
			Booked:    len(state.Booked),
			Available: len(state.Slots) - len(state.Booked),
		})
	}
	return out
}
