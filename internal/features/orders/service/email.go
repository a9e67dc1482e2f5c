package service

import (
	"bytes"
	"context"
	"html/template"

	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/mailer"
	"storefront-orders/internal/features/orders/domain"

	"go.uber.org/zap"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thank you for your order, {{.ShippingAddress.FullName}}</h2>
<p>Order number: <strong>{{.OrderNumber}}</strong></p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Subtotal: {{printf "%.2f" .Subtotal}}</p>
<p>Total: {{printf "%.2f" .Total}}</p>
<p>Payment method: {{.PaymentMethod}}</p>
</body>
</html>
`))

// renderConfirmation builds the order confirmation email body.
func renderConfirmation(order *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, order); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sendConfirmation is best effort: failures are logged and never fail the order.
func (s *OrderService) sendConfirmation(ctx context.Context, order *domain.Order) {
	if order.Email == "" {
		return
	}

	body, err := renderConfirmation(order)
	if err != nil {
		logger.Get().Error("Failed to render confirmation email", zap.String("order_id", order.ID), zap.Error(err))
		return
	}

	err = s.mail.Send(ctx, mailer.Message{
		To:      order.Email,
		Subject: "Order confirmation " + order.OrderNumber,
		HTML:    body,
	})
	if err != nil {
		logger.Get().Error("Failed to send confirmation email",
			zap.String("order_id", order.ID),
			zap.String("to", order.Email),
			zap.Error(err),
		)
	}
}
