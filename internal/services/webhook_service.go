package services

import (
	"context"
	"fmt"
	"log"

	"vitrine/internal/payments"
	"vitrine/internal/repos"
)

// WebhookService reconciles asynchronous payment notifications. Stateless;
// safe to run concurrently with other deliveries and with in-flight
// placements for other orders.
type WebhookService struct {
	Orders  *repos.OrderRepo
	Gateway payments.Gateway
}

func NewWebhookService(orders *repos.OrderRepo, gw payments.Gateway) *WebhookService {
	return &WebhookService{Orders: orders, Gateway: gw}
}

// Reconcile processes one notification. A nil return means "acknowledge to
// the processor": that covers ignored types and non-approved statuses. An
// error means the processor should retry — a failed payment fetch, or a
// store failure while applying an approved update.
//
// Replays are harmless: marking an order paid writes the same values every
// time and nothing here increments anything.
func (s *WebhookService) Reconcile(ctx context.Context, notificationType, paymentID string) error {
	if notificationType != "payment" || paymentID == "" {
		return nil
	}

	// Never trust the payload's embedded status; re-fetch the authoritative
	// record by id.
	p, err := s.Gateway.PaymentByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	if p.Status != payments.StatusApproved || p.OrderID == "" {
		log.Printf("[webhook] payment %s for order %q status=%s, no-op", p.ID, p.OrderID, p.Status)
		return nil
	}

	method := p.Method
	if err := s.Orders.MarkPaid(p.OrderID, p.ID, method, p.Installments, p.InstallmentAmount); err != nil {
		return fmt.Errorf("webhook: mark order %s paid: %w", p.OrderID, err)
	}
	return nil
}
