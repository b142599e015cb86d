package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/notifications"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/collection"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/notification"
	"github.com/bytekstore/bytek/pkg/queue"
)

// FallbackAdminEmail receives order alerts when neither ADMIN_EMAIL nor an
// admin account is available.
const FallbackAdminEmail = "admin@bytekstore.com"

// SendOrderMailJob is the queue name of SendOrderMail.
const SendOrderMailJob = "send_order_mail"

// SendOrderMail mails one order email. It is queued after the order is
// committed and retried by the queue on delivery failure.
type SendOrderMail struct {
	OrderID string             `json:"order_id"`
	Role    notifications.Role `json:"role"`

	svc *NotificationService
}

func (SendOrderMail) JobName() string { return SendOrderMailJob }

func (j *SendOrderMail) Handle(ctx context.Context) error {
	return j.svc.Deliver(ctx, j.OrderID, j.Role)
}

// orderMail adapts a rendered order to notification.Mailable.
type orderMail struct {
	notifier *notifications.Notifier
	order    models.Order
	role     notifications.Role
}

func (m orderMail) Kind() string { return string(m.role) }

func (m orderMail) ToMail() (notification.MailData, error) {
	return m.notifier.Render(m.order, m.role)
}

type lowStockMail struct {
	notifier  *notifications.Notifier
	items     []notifications.LowStockItem
	threshold int
	now       time.Time
}

func (lowStockMail) Kind() string { return "low_stock" }

func (m lowStockMail) ToMail() (notification.MailData, error) {
	return m.notifier.RenderLowStock(m.items, m.threshold, m.now)
}

type NotificationService struct {
	notifier   *notifications.Notifier
	sender     *notification.Sender
	orders     *repositories.OrderRepository
	users      *repositories.UserRepository
	queue      *queue.Manager
	adminEmail string
}

func NewNotificationService(
	notifier *notifications.Notifier,
	sender *notification.Sender,
	orders *repositories.OrderRepository,
	users *repositories.UserRepository,
	q *queue.Manager,
	adminEmail string,
) *NotificationService {
	s := &NotificationService{
		notifier:   notifier,
		sender:     sender,
		orders:     orders,
		users:      users,
		queue:      q,
		adminEmail: adminEmail,
	}
	q.Register(SendOrderMailJob, func() queue.Job { return &SendOrderMail{svc: s} })
	return s
}

// OnOrderPlaced queues the admin alert and, when the customer left an
// address, the confirmation. Queue failures are logged; the order stands.
func (s *NotificationService) OnOrderPlaced(ctx context.Context, payload any) {
	o, ok := payload.(models.Order)
	if !ok {
		return
	}
	roles := []notifications.Role{notifications.RoleAdmin}
	if o.Email() != "" {
		roles = append(roles, notifications.RoleCustomer)
	}
	for _, role := range roles {
		if err := s.queue.Dispatch(ctx, &SendOrderMail{OrderID: o.ID, Role: role}); err != nil {
			logger.WithCtx(ctx).Error("notification: dispatch failed", "order", o.OrderNumber, "role", role, "error", err)
		}
	}
}

// AdminRecipient resolves where admin alerts go: ADMIN_EMAIL, then the
// oldest admin account, then the shop's default inbox.
func (s *NotificationService) AdminRecipient(ctx context.Context) string {
	if s.adminEmail != "" {
		return s.adminEmail
	}
	u, err := s.users.FirstAdmin(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			logger.WithCtx(ctx).Warn("notification: admin lookup failed", "error", err)
		}
		return FallbackAdminEmail
	}
	return u.Email
}

// Deliver loads the order and mails it to role's recipient.
func (s *NotificationService) Deliver(ctx context.Context, orderID string, role notifications.Role) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		logger.WithCtx(ctx).Warn("notification: order gone, dropping mail", "order_id", orderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	var to string
	switch role {
	case notifications.RoleAdmin:
		to = s.AdminRecipient(ctx)
	case notifications.RoleCustomer:
		to = o.Email()
	default:
		return fmt.Errorf("unknown notification role %q", role)
	}
	return s.sender.Send(ctx, []string{to}, orderMail{notifier: s.notifier, order: o, role: role})
}

// SendLowStock mails the digest to the admin. Nothing is sent when no
// product is low.
func (s *NotificationService) SendLowStock(ctx context.Context, products []models.Product, threshold int) error {
	if len(products) == 0 {
		return nil
	}
	items := collection.Map(products, func(p models.Product) notifications.LowStockItem {
		return notifications.LowStockItem{Name: p.Name, Category: p.Category, Stock: p.TotalStock()}
	})
	return s.sender.Send(ctx, []string{s.AdminRecipient(ctx)},
		lowStockMail{notifier: s.notifier, items: items, threshold: threshold, now: time.Now()})
}
