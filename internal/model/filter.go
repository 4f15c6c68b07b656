package model

import "time"

// FilterCriteria narrows the concert list by date and price ranges. Nil
// bounds are open ends. Filtering is structurally independent from keyword
// search; the list controller keeps only one of the two active at a time.
type FilterCriteria struct {
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
	MinPriceCents *uint32    `json:"min_price_cents,omitempty"`
	MaxPriceCents *uint32    `json:"max_price_cents,omitempty"`
}

// Empty reports whether no bound is set at all.
func (f FilterCriteria) Empty() bool {
	return f.From == nil && f.To == nil && f.MinPriceCents == nil && f.MaxPriceCents == nil
}
