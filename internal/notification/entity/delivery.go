package entity

import "time"

// DeliveryStatus is the terminal state of one email delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

func (d DeliveryStatus) String() string {
	return string(d)
}

// DeliveryLog records one outbound email so support can trace whether a code
// email left the system. It never stores the code itself.
type DeliveryLog struct {
	ID        int64
	UserID    string
	Email     string
	Purpose   string
	Subject   string
	Status    DeliveryStatus
	Reason    string
	CreatedAt time.Time
}
