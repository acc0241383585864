package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel types
const (
	ChannelEmail = "email"
)

// Delivery statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// ApprovalSubject is the subject line of the approval email.
const ApprovalSubject = "ברוך הבא! אושרת כמתנדב"

// DeliveryLog records one notification attempt.
type DeliveryLog struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Channel      string    `json:"channel" gorm:"not null"`
	Recipient    string    `json:"recipient" gorm:"not null;index"`
	Subject      string    `json:"subject"`
	Attachment   string    `json:"attachment"`
	Status       string    `json:"status" gorm:"not null"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (d *DeliveryLog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ApproveRequest is the body of the approval endpoint. The field names match
// what the admin page already posts.
type ApproveRequest struct {
	Email        string `json:"email" binding:"required,email"`
	PDFPath      string `json:"pdf_path"`
	WhatsAppLink string `json:"whatsAppLink"`
}
