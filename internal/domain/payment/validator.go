package payment

import (
	"fmt"
	"strings"

	"github.com/kedarnelavelli/payment-service/internal/model"
)

// requiredStatuses is the single authority on which action is legal in which status.
var requiredStatuses = map[model.PaymentAction][]model.OrderStatus{
	model.ActionPurchase:  {model.OrderStatusCreated},
	model.ActionAuthorize: {model.OrderStatusCreated},
	model.ActionCapture:   {model.OrderStatusAuthorized},
	model.ActionCancel:    {model.OrderStatusAuthorized},
	model.ActionRefund:    {model.OrderStatusCaptured, model.OrderStatusPartiallyRefunded},
}

// ValidateTransition reports whether action may run on an order in status current.
func ValidateTransition(current model.OrderStatus, action model.PaymentAction) error {
	allowed, ok := requiredStatuses[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	for _, s := range allowed {
		if s == current {
			return nil
		}
	}
	return fmt.Errorf("%w: %s allowed only in %s state (current: %s)",
		ErrInvalidTransition, strings.ToLower(string(action)), joinStatuses(allowed), current)
}

// RequiredStatuses returns the statuses in which action is legal.
func RequiredStatuses(action model.PaymentAction) []model.OrderStatus {
	allowed := requiredStatuses[action]
	out := make([]model.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// NextActions returns the actions legal from status, in declaration order.
func NextActions(status model.OrderStatus) []model.PaymentAction {
	var actions []model.PaymentAction
	for _, a := range model.AllPaymentActions {
		if ValidateTransition(status, a) == nil {
			actions = append(actions, a)
		}
	}
	return actions
}

func joinStatuses(statuses []model.OrderStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, " or ")
}
