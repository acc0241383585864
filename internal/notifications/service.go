package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"community-registration/volunteer-forms-backend/pkg/mail"
)

// Approver emails approved volunteers their filled form. Delivery problems
// never reach the caller: the approval itself already happened.
type Approver struct {
	sender       mail.Sender
	db           *gorm.DB
	organization string
	logger       *zap.Logger
}

// NewApprover creates an approver. A nil sender disables email and a nil db
// disables the delivery log.
func NewApprover(sender mail.Sender, db *gorm.DB, organization string, logger *zap.Logger) *Approver {
	return &Approver{
		sender:       sender,
		db:           db,
		organization: organization,
		logger:       logger,
	}
}

// AutoMigrate creates the delivery log table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&DeliveryLog{})
}

// SendApproval sends the approval email with pdfPath attached. Failures are
// logged and recorded, not returned.
func (a *Approver) SendApproval(ctx context.Context, email, whatsAppLink, pdfPath string) {
	entry := &DeliveryLog{
		Channel:    ChannelEmail,
		Recipient:  email,
		Subject:    ApprovalSubject,
		Attachment: pdfPath,
	}

	if err := a.send(ctx, email, whatsAppLink, pdfPath); err != nil {
		entry.Status = StatusFailed
		entry.ErrorMessage = err.Error()
		a.logger.Error("Failed to send approval email", zap.String("email", email), zap.Error(err))
	} else if a.sender == nil {
		entry.Status = StatusDisabled
		a.logger.Warn("Mail is disabled, approval email not sent", zap.String("email", email))
	} else {
		entry.Status = StatusSent
		a.logger.Info("Approval email sent", zap.String("email", email))
	}

	a.record(ctx, entry)
}

func (a *Approver) send(ctx context.Context, email, whatsAppLink, pdfPath string) error {
	if a.sender == nil {
		return nil
	}
	body, err := RenderApproval(a.organization, whatsAppLink)
	if err != nil {
		return fmt.Errorf("failed to render approval email: %w", err)
	}

	msg := &mail.Message{
		To:       []string{email},
		Subject:  ApprovalSubject,
		HTMLBody: body,
	}
	if pdfPath != "" {
		msg.Attachments = []mail.Attachment{{Path: pdfPath}}
	}
	return a.sender.Send(ctx, msg)
}

func (a *Approver) record(ctx context.Context, entry *DeliveryLog) {
	if a.db == nil {
		return
	}
	if err := a.db.WithContext(ctx).Create(entry).Error; err != nil {
		a.logger.Warn("Failed to record delivery", zap.Error(err))
	}
}

// ListDeliveries returns the most recent delivery attempts.
func (a *Approver) ListDeliveries(ctx context.Context, limit int) ([]DeliveryLog, error) {
	logs := []DeliveryLog{}
	if a.db == nil {
		return logs, nil
	}
	q := a.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
