package services

import (
	"fmt"
	"log"
	"time"

	"notary_flow_go/models"

	"gorm.io/gorm"
)

// Notifier persists in-app notifications and dispatches email to the
// affected user. Every notify call is fire-and-forget: a delivery
// failure is logged and never rolls back the transaction that caused
// the notification.
type Notifier struct {
	DB    *gorm.DB
	Email *EmailSender
}

// NewNotifier creates a notifier. Email may be nil; only the persisted
// notification is written in that case.
func NewNotifier(db *gorm.DB, email *EmailSender) *Notifier {
	return &Notifier{DB: db, Email: email}
}

func (n *Notifier) deliver(notification *models.Notification) {
	if err := n.DB.Create(notification).Error; err != nil {
		log.Printf("Failed to persist notification for user %s: %v", notification.UserID, err)
		return
	}

	if n.Email == nil {
		return
	}
	user, err := GetUser(n.DB, notification.UserID)
	if err != nil || user.Email == "" {
		return
	}
	email := &Email{
		To:       []string{user.Email},
		Subject:  notification.Title,
		TextBody: notification.Message,
	}
	if err := n.Email.Send(email); err != nil {
		log.Printf("Failed to send notification email to %s: %v", user.Email, err)
	}
}

// NotifyDerivacionCreated tells the addressee a case was referred to them
func (n *Notifier) NotifyDerivacionCreated(d *models.Derivacion) {
	go n.deliver(&models.Notification{
		UserID:       d.ToUserID,
		ServiceID:    &d.ServiceID,
		DerivacionID: &d.ID,
		Type:         models.NotificationTypeDerivacionCreated,
		Title:        "Nueva derivación",
		Message:      fmt.Sprintf("Se le ha derivado un servicio. Motivo: %s", d.Reason),
	})
}

// NotifyDerivacionAccepted tells the sender their hand-off was taken.
// The initial self-referral has no sender and emits nothing.
func (n *Notifier) NotifyDerivacionAccepted(d *models.Derivacion) {
	if d.FromUserID == nil {
		return
	}
	go n.deliver(&models.Notification{
		UserID:       *d.FromUserID,
		ServiceID:    &d.ServiceID,
		DerivacionID: &d.ID,
		Type:         models.NotificationTypeDerivacionAccepted,
		Title:        "Derivación aceptada",
		Message:      "Su derivación ha sido aceptada.",
	})
}

// NotifyDerivacionCancelled tells the counterparty the referral was
// terminated: the sender when the addressee rejected, the addressee
// when the sender retracted.
func (n *Notifier) NotifyDerivacionCancelled(d *models.Derivacion) {
	target := d.ToUserID
	if d.CancelledByUserID != nil && *d.CancelledByUserID == d.ToUserID {
		if d.FromUserID == nil {
			return
		}
		target = *d.FromUserID
	}
	go n.deliver(&models.Notification{
		UserID:       target,
		ServiceID:    &d.ServiceID,
		DerivacionID: &d.ID,
		Type:         models.NotificationTypeDerivacionCancelled,
		Title:        "Derivación cancelada",
		Message:      fmt.Sprintf("La derivación fue cancelada. Motivo: %s", d.CancellationReason),
	})
}

// NotifyStatusChanged tells the service creator the case moved to a new
// status. Changes made by the creator themselves are not echoed back.
func (n *Notifier) NotifyStatusChanged(s *models.Service, status *models.ServiceStatus, actingUserID string) {
	if s.CreatedByID == actingUserID {
		return
	}
	go n.deliver(&models.Notification{
		UserID:    s.CreatedByID,
		ServiceID: &s.ID,
		Type:      models.NotificationTypeStatusChanged,
		Title:     "Cambio de estado",
		Message:   fmt.Sprintf("El servicio %s pasó al estado %s.", s.TicketCode, status.Name),
	})
}

// NotifyServicePaid tells the service creator the balance reached zero
func (n *Notifier) NotifyServicePaid(s *models.Service) {
	go n.deliver(&models.Notification{
		UserID:    s.CreatedByID,
		ServiceID: &s.ID,
		Type:      models.NotificationTypeServicePaid,
		Title:     "Servicio pagado",
		Message:   fmt.Sprintf("El servicio %s ha sido pagado en su totalidad.", s.TicketCode),
	})
}

// GetUnreadNotifications returns the user's latest unread notifications
func GetUnreadNotifications(db *gorm.DB, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkNotificationRead marks one notification as read
func MarkNotificationRead(db *gorm.DB, notificationID, userID string) error {
	now := time.Now()
	return db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", now).Error
}
