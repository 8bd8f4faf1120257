// Package queue defines message payloads exchanged over the message broker.
package queue

// Journey event types.
const (
    EventApplicationCreated   = "application.created"
    EventApplicationSubmitted = "application.submitted"
    EventPaymentConfirmed     = "payment.confirmed"
)

// JourneyEvent records one step of an applicant's journey through the
// portal.  It carries enough to audit the flow without calling the remote
// service.  Fields that do not apply to a step are left empty.
type JourneyEvent struct {
    Type            string `json:"type"`
    SessionID       string `json:"session_id"`
    Username        string `json:"username,omitempty"`
    SubcategoryID   int64  `json:"subcategory_id"`
    ApplicationID   int64  `json:"application_id,omitempty"`
    ApplicantNumber string `json:"applicant_number,omitempty"`
    Method          string `json:"method,omitempty"`
    Provider        string `json:"provider,omitempty"`
    OccurredAt      string `json:"occurred_at"`
}
