// Package cart is the session shopping cart.
//
// All functions are pure: they never modify the cart they receive and
// return a new value instead. The caller replaces its held reference.
package cart

import (
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// An Item is a product snapshot with a quantity of at least 1.
type Item struct {
	Product  domain.Product
	Quantity int
}

// A Cart is an insertion ordered set of items keyed by product id.
//
// The zero value is an empty cart.
type Cart struct {
	items []Item
}

// New returns a cart holding items, merging duplicates by product id and
// dropping non-positive quantities.
func New(items ...Item) Cart {
	var c Cart
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if i := c.index(it.Product.ID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

// Items returns a copy of the items in insertion order.
func (c Cart) Items() []Item {
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int { return len(c.items) }

// Get returns the item for productID.
func (c Cart) Get(productID string) (Item, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

func (c Cart) index(productID string) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return Cart{items}
}

// AddItem increments the quantity of p if present, otherwise appends it
// with quantity 1.
func AddItem(c Cart, p domain.Product) Cart {
	if i := c.index(p.ID); i >= 0 {
		next := c.clone()
		next.items[i].Quantity++
		return next
	}
	items := make([]Item, len(c.items), len(c.items)+1)
	copy(items, c.items)
	return Cart{append(items, Item{Product: p, Quantity: 1})}
}

// RemoveItem deletes the entry for productID. Absent ids are a no-op.
func RemoveItem(c Cart, productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	items := make([]Item, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items}
}

// IncreaseQuantity adds one to an existing entry. Absent ids are a no-op.
func IncreaseQuantity(c Cart, productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	next := c.clone()
	next.items[i].Quantity++
	return next
}

// DecreaseQuantity subtracts one from an existing entry, removing it when
// the quantity would reach zero. Absent ids are a no-op.
func DecreaseQuantity(c Cart, productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	if c.items[i].Quantity <= 1 {
		return RemoveItem(c, productID)
	}
	next := c.clone()
	next.items[i].Quantity--
	return next
}

// Clear returns an empty cart.
func Clear(Cart) Cart {
	return Cart{}
}

// Total is the sum of price times quantity.
func Total(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Count is the sum of quantities.
func Count(c Cart) int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}
