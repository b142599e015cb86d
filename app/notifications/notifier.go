// Package notifications renders the shop's emails from embedded templates.
package notifications

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/notification"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Role selects who an order email is written for.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleCustomer }

// Notifier renders emails. It holds no connections and never sends.
type Notifier struct {
	appURL      string
	trackingURL string
	html        *htmltemplate.Template
	text        *texttemplate.Template
}

// New parses the embedded templates. appURL prefixes storefront links and
// trackingURL is the carrier's lookup page.
func New(appURL, trackingURL string) (*Notifier, error) {
	funcs := map[string]any{
		"money":    Money,
		"modeName": modeName,
		"query":    url.QueryEscape,
	}
	h, err := htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("notifications: parse html templates: %w", err)
	}
	t, err := texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("notifications: parse text templates: %w", err)
	}
	return &Notifier{appURL: strings.TrimRight(appURL, "/"), trackingURL: trackingURL, html: h, text: t}, nil
}

type orderData struct {
	Order      models.Order
	Items      models.LineItems
	TotalItems int
	PlacedAt   string
	TrackURL   string
	CarrierURL string
	AdminURL   string
	Email      string
	Tracking   string
	Notes      string
}

// Render builds the order email for role. It is a pure function of its
// inputs.
func (n *Notifier) Render(o models.Order, role Role) (notification.MailData, error) {
	if !role.Valid() {
		return notification.MailData{}, fmt.Errorf("notifications: unknown role %q", role)
	}

	data := orderData{
		Order:      o,
		Items:      o.Items,
		TotalItems: o.Items.Count(),
		PlacedAt:   o.CreatedAt.UTC().Format("January 2, 2006 at 15:04 UTC"),
		TrackURL:   n.appURL + "/track?order=" + url.QueryEscape(o.OrderNumber),
		AdminURL:   n.appURL + "/admin/orders",
		Email:      o.Email(),
		Tracking:   o.Tracking(),
	}
	if o.Notes != nil {
		data.Notes = *o.Notes
	}
	if data.Tracking != "" && n.trackingURL != "" {
		data.CarrierURL = n.trackingURL + url.QueryEscape(data.Tracking)
	}

	subject := "🛒 New Order: " + o.OrderNumber
	if role == RoleCustomer {
		subject = "✅ Order Confirmation: " + o.OrderNumber
	}
	return n.render("order_"+string(role), subject, data)
}

// LowStockItem is one row of the low-stock digest.
type LowStockItem struct {
	Name     string
	Category string
	Stock    int
}

// RenderLowStock builds the admin's low-stock digest.
func (n *Notifier) RenderLowStock(items []LowStockItem, threshold int, now time.Time) (notification.MailData, error) {
	data := struct {
		Items     []LowStockItem
		Threshold int
		Date      string
		AdminURL  string
	}{items, threshold, now.UTC().Format(time.DateOnly), n.appURL + "/admin/products"}

	return n.render("low_stock", fmt.Sprintf("⚠️ Low stock: %d products", len(items)), data)
}

func (n *Notifier) render(name, subject string, data any) (notification.MailData, error) {
	var h, t bytes.Buffer
	if err := n.html.ExecuteTemplate(&h, name+".html.tmpl", data); err != nil {
		return notification.MailData{}, fmt.Errorf("notifications: render %s html: %w", name, err)
	}
	if err := n.text.ExecuteTemplate(&t, name+".txt.tmpl", data); err != nil {
		return notification.MailData{}, fmt.Errorf("notifications: render %s text: %w", name, err)
	}
	return notification.MailData{
		Subject: subject,
		Body:    h.String(),
		Text:    strings.TrimSpace(t.String()),
	}, nil
}

func modeName(mode string) string {
	if mode == "pickup" {
		return "Stop desk"
	}
	return "Home delivery"
}

// Money formats an amount as "12,500 DZD". Cents are shown only when
// present.
func Money(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "00" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteString(" DZD")
	return b.String()
}
