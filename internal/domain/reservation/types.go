package reservation

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsOccupying reports whether this status blocks other reservations from
// claiming overlapping dates. Pending reservations never block.
func (s Status) IsOccupying() bool {
	return s == StatusConfirmed || s == StatusPaid
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// OccupyingStatuses is the filter used by every availability query.
var OccupyingStatuses = []Status{StatusConfirmed, StatusPaid}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// GatewayStatus is the payment status vocabulary reported by Mercado Pago.
type GatewayStatus string

const (
	GatewayApproved  GatewayStatus = "approved"
	GatewayRejected  GatewayStatus = "rejected"
	GatewayCancelled GatewayStatus = "cancelled"
	GatewayInProcess GatewayStatus = "in_process"
	GatewayPending   GatewayStatus = "pending"
)
