package enums

import "fmt"

// PaymentMethod identifies how an order is settled. Gateway calls are stubbed;
// the method is recorded for bookkeeping only.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

var paymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCard:           {},
	PaymentMethodCashOnDelivery: {},
	PaymentMethodBankTransfer:   {},
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethods[p]
	return ok
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(value)
	if !method.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return method, nil
}
