package enums

// NotificationKind labels the fire-and-forget events recorded by the core.
type NotificationKind string

const (
	NotificationOrderCreated    NotificationKind = "order_created"
	NotificationStatusChanged   NotificationKind = "order_status_changed"
	NotificationRefundProcessed NotificationKind = "refund_processed"
)

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}
