package domain

import "sort"

// Cart maps product ids to positive quantities. A product with quantity zero is never stored.
type Cart map[string]int

// NewCart returns an empty cart
func NewCart() Cart {
	return make(Cart)
}

// Add increments the quantity of productID by one
func (c Cart) Add(productID string) int {
	c[productID]++
	return c[productID]
}

// SetQuantity sets the quantity of productID. Zero removes the entry.
func (c Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		delete(c, productID)
		return nil
	}
	c[productID] = quantity
	return nil
}

// Clear removes every entry
func (c Cart) Clear() {
	for id := range c {
		delete(c, id)
	}
}

// Count returns the total number of units in the cart
func (c Cart) Count() int {
	total := 0
	for _, q := range c {
		if q > 0 {
			total += q
		}
	}
	return total
}

// Lines returns the cart as order items sorted by product id, skipping non-positive quantities
func (c Cart) Lines() []OrderItem {
	lines := make([]OrderItem, 0, len(c))
	for id, q := range c {
		if q > 0 {
			lines = append(lines, OrderItem{ProductID: id, Quantity: q})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// Clone returns an independent copy
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, q := range c {
		out[id] = q
	}
	return out
}

// CartFromItems builds a cart from order items, dropping non-positive quantities and
// summing duplicate lines
func CartFromItems(items []OrderItem) Cart {
	c := make(Cart, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			c[it.ProductID] += it.Quantity
		}
	}
	return c
}

// Wishlist is a set of product ids
type Wishlist map[string]struct{}

// NewWishlist returns an empty wishlist containing ids
func NewWishlist(ids ...string) Wishlist {
	w := make(Wishlist, len(ids))
	for _, id := range ids {
		w[id] = struct{}{}
	}
	return w
}

func (w Wishlist) Add(productID string) {
	w[productID] = struct{}{}
}

func (w Wishlist) Remove(productID string) {
	delete(w, productID)
}

// Toggle adds productID if absent and removes it otherwise. It returns true when it added.
func (w Wishlist) Toggle(productID string) bool {
	if w.Contains(productID) {
		w.Remove(productID)
		return false
	}
	w.Add(productID)
	return true
}

func (w Wishlist) Contains(productID string) bool {
	_, ok := w[productID]
	return ok
}

func (w Wishlist) Count() int {
	return len(w)
}

func (w Wishlist) Clear() {
	for id := range w {
		delete(w, id)
	}
}

// IDs returns the members in sorted order
func (w Wishlist) IDs() []string {
	ids := make([]string, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
