package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/collection"
)

// ErrInsufficientStock is wrapped by StockError.
var ErrInsufficientStock = errors.New("not enough stock available")

// StockError reports how many units of a variant may still be added.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	if e.Available <= 0 {
		return "This option is out of stock"
	}
	return fmt.Sprintf("Only %d more available", e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// CartItem is one cart line as the storefront renders it.
type CartItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
}

type CartService struct {
	carts    *cart.Locker
	products *repositories.ProductRepository
	catalog  *ProductService
}

func NewCartService(carts *cart.Locker, products *repositories.ProductRepository, catalog *ProductService) *CartService {
	return &CartService{carts: carts, products: products, catalog: catalog}
}

func viewOf(c *cart.Cart) CartView {
	lines := c.Lines()
	v := CartView{Items: make([]CartItem, 0, len(lines)), Subtotal: c.Subtotal(), TotalItems: c.TotalItems()}
	for _, l := range lines {
		v.Items = append(v.Items, CartItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Image:     l.Product.Image,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			Subtotal:  l.Subtotal(),
		})
	}
	return v
}

func snapshot(p models.Product) cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price}
}

// reprice refreshes every line from the catalog, dropping products that
// were deleted or archived.
func (s *CartService) reprice(ctx context.Context, c *cart.Cart) error {
	lines := c.Lines()
	if len(lines) == 0 {
		return nil
	}
	ids := collection.Unique(collection.Map(lines, func(l cart.Line) string { return l.Product.ID }))
	found, err := s.products.FindMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("reprice cart: %w", err)
	}
	return c.Reprice(ctx, func(id string) (cart.Product, bool) {
		p, ok := found[id]
		if !ok || p.Status == models.StatusArchived {
			return cart.Product{}, false
		}
		return snapshot(p), true
	})
}

// View returns the session's cart at current catalog prices.
func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	var v CartView
	err := s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		if err := s.reprice(ctx, c); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

// Add puts qty units of a variant in the cart. Empty size or color picks
// the product's first option. The cart may never hold more than the
// variant's available stock.
func (s *CartService) Add(ctx context.Context, sessionID, productID, size, color string, qty int) (CartView, error) {
	if qty <= 0 {
		return CartView{}, cart.ErrInvalidQuantity
	}
	p, err := s.catalog.Get(ctx, productID, false)
	if err != nil {
		return CartView{}, err
	}
	if size == "" && len(p.Sizes) > 0 {
		size = p.Sizes[0]
	}
	if color == "" && len(p.Colors) > 0 {
		color = p.Colors[0]
	}

	var v CartView
	err = s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		inCart := c.Quantity(p.ID, size, color)
		if avail := s.catalog.Available(p, size, color); inCart+qty > avail {
			return &StockError{Available: max(0, avail-inCart)}
		}
		if err := c.Add(ctx, snapshot(p), qty, size, color); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

// SetQuantity changes a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID, size, color string, qty int) (CartView, error) {
	var v CartView
	err := s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		if qty > c.Quantity(productID, size, color) {
			p, err := s.catalog.Get(ctx, productID, false)
			if err != nil {
				return err
			}
			if avail := s.catalog.Available(p, size, color); qty > avail {
				return &StockError{Available: avail}
			}
		}
		if err := c.SetQuantity(ctx, productID, size, color, qty); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID, size, color string) (CartView, error) {
	var v CartView
	err := s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		if err := c.Remove(ctx, productID, size, color); err != nil {
			return err
		}
		v = viewOf(c)
		return nil
	})
	return v, err
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		return c.Clear(ctx)
	})
}

// withCart runs fn under the session lock. Checkout uses it so the cart
// cannot change between pricing and clearing.
func (s *CartService) withCart(ctx context.Context, sessionID string, fn func(*cart.Cart) error) error {
	return s.carts.With(ctx, sessionID, func(c *cart.Cart) error {
		if err := s.reprice(ctx, c); err != nil {
			return err
		}
		return fn(c)
	})
}
