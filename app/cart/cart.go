// Package cart keeps a visitor's cart and persists it after every change.
//
//	c, err := cart.Open(ctx, store, sess.ID())
//	err := c.Add(ctx, cart.Product{ID: p.ID, Name: p.Name, Price: p.Price}, 2, "One Size", "Black")
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/pkg/logger"
)

var (
	// ErrInvalidQuantity is returned by Add for a quantity below one.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

	// ErrUnavailable wraps store failures. The stored cart is untouched
	// and the caller may retry.
	ErrUnavailable = errors.New("cart: store unavailable")
)

// Product is the catalog snapshot a line carries.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// Line is one (product, size, color) entry. Quantity is always >= 1.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Size     string  `json:"size"`
	Color    string  `json:"color"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) matches(productID, size, color string) bool {
	return l.Product.ID == productID && l.Size == size && l.Color == color
}

type payload struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

const payloadVersion = 1

// Cart is owned by one session. Every mutation writes the full cart to the
// store before it takes effect; a failed write leaves the cart unchanged.
type Cart struct {
	mu      sync.Mutex
	session string
	store   Store
	lines   []Line
}

// Open rehydrates the session's cart. A missing payload gives an empty
// cart and so does a corrupt one, which is logged. A store failure is
// returned as ErrUnavailable so nothing overwrites the stored cart.
func Open(ctx context.Context, store Store, sessionID string) (*Cart, error) {
	c := &Cart{session: sessionID, store: store}

	raw, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return c, nil
	}

	lines, err := decode(raw)
	if err != nil {
		logger.WithCtx(ctx).Warn("cart: discarding corrupt cart", "session", sessionID, "error", err)
		return c, nil
	}
	c.lines = lines
	return c, nil
}

func decode(raw []byte) ([]Line, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(p.Lines))
	seen := make(map[[3]string]int, len(p.Lines))
	for _, l := range p.Lines {
		if l.Quantity <= 0 || l.Product.ID == "" {
			continue
		}
		key := [3]string{l.Product.ID, l.Size, l.Color}
		if i, ok := seen[key]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[key] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// SessionID returns the owning session.
func (c *Cart) SessionID() string { return c.session }

// commit persists next and swaps it in. Caller holds mu.
func (c *Cart) commit(ctx context.Context, next []Line) error {
	raw, err := json.Marshal(payload{Version: payloadVersion, Lines: next})
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := c.store.Save(ctx, c.session, raw); err != nil {
		return fmt.Errorf("%w: save: %w", ErrUnavailable, err)
	}
	c.lines = next
	return nil
}

func (c *Cart) snapshot() []Line {
	return append([]Line(nil), c.lines...)
}

// Add increments an existing (product, size, color) line or appends one.
func (c *Cart) Add(ctx context.Context, p Product, qty int, size, color string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	for i := range next {
		if next[i].matches(p.ID, size, color) {
			next[i].Quantity += qty
			next[i].Product = p
			return c.commit(ctx, next)
		}
	}
	next = append(next, Line{Product: p, Quantity: qty, Size: size, Color: color})
	return c.commit(ctx, next)
}

// Remove deletes the matching line. Removing an absent line is a no-op.
func (c *Cart) Remove(ctx context.Context, productID, size, color string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, productID, size, color)
}

func (c *Cart) removeLocked(ctx context.Context, productID, size, color string) error {
	next := make([]Line, 0, len(c.lines))
	found := false
	for _, l := range c.lines {
		if l.matches(productID, size, color) {
			found = true
			continue
		}
		next = append(next, l)
	}
	if !found {
		return nil
	}
	return c.commit(ctx, next)
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes the line.
// Setting a quantity on an absent line is a no-op.
func (c *Cart) SetQuantity(ctx context.Context, productID, size, color string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		return c.removeLocked(ctx, productID, size, color)
	}
	next := c.snapshot()
	for i := range next {
		if next[i].matches(productID, size, color) {
			if next[i].Quantity == qty {
				return nil
			}
			next[i].Quantity = qty
			return c.commit(ctx, next)
		}
	}
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(ctx, []Line{})
}

// Reprice refreshes each line's product snapshot through lookup and drops
// lines whose product is gone. It only writes when something changed.
func (c *Cart) Reprice(ctx context.Context, lookup func(productID string) (Product, bool)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]Line, 0, len(c.lines))
	changed := false
	for _, l := range c.lines {
		p, ok := lookup(l.Product.ID)
		if !ok {
			changed = true
			continue
		}
		if !p.Price.Equal(l.Product.Price) || p.Name != l.Product.Name || p.Image != l.Product.Image {
			changed = true
		}
		l.Product = p
		next = append(next, l)
	}
	if !changed {
		return nil
	}
	return c.commit(ctx, next)
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Quantity is how many units of the variant are already in the cart.
func (c *Cart) Quantity(productID, size, color string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if l.matches(productID, size, color) {
			return l.Quantity
		}
	}
	return 0
}

// Subtotal sums price times quantity over every line.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// TotalItems sums quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}
