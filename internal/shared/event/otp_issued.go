// Package event holds the message contracts shared between modules.
package event

// OTPIssuedDestination is the topic/subject carrying freshly issued codes to
// the notification consumer.
const OTPIssuedDestination string = "otp_issued"

// OTPIssuedConsumerNotification names the notification module's consumer
// group/channel on the otp_issued destination.
const OTPIssuedConsumerNotification string = "otp_issued_notification"

// OTPIssuedMessage is published when a one-time code is issued. The code
// travels only on this internal channel so the mailer can deliver it; it is
// never exposed through the HTTP API.
type OTPIssuedMessage struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}
