// workers/notification_worker.go
package workers

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"time"

	"assassin-game-service/models"
	"gorm.io/gorm"
)

// NotificationWorker drains the pending notification queue and delivers
// mail. Delivery is strictly after-the-fact: the eliminations that
// queued these rows are already committed, so a bounced mail only marks
// the row failed.
type NotificationWorker struct {
	db       *gorm.DB
	interval time.Duration

	smtpAddr string // host:port; empty = dev mode, log instead of send
	smtpHost string
	smtpUser string
	smtpPass string
	sender   string
	replyTo  string
}

func NewNotificationWorker(db *gorm.DB) *NotificationWorker {
	w := &NotificationWorker{
		db:       db,
		interval: 15 * time.Second,
		smtpAddr: os.Getenv("SMTP_ADDR"), // e.g. "smtp.example.edu:587"
		smtpHost: os.Getenv("SMTP_HOST"),
		smtpUser: os.Getenv("SMTP_USER"),
		smtpPass: os.Getenv("SMTP_PASSWORD"),
		sender:   os.Getenv("EMAIL_SENDER"),
		replyTo:  os.Getenv("EMAIL_REPLY_TO"),
	}
	if w.sender == "" {
		w.sender = "MI6 <m@sis.gov.uk>"
	}
	if w.smtpAddr == "" {
		log.Println("⚠️  SMTP_ADDR not set — notification worker runs in dev mode (mail is logged, not sent)")
	}
	return w
}

func (w *NotificationWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Notification Worker (pending notifications → mail)…")
	go w.run(ctx)
}

func (w *NotificationWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.deliverBatch(ctx); err != nil {
				log.Printf("❌ [MAIL] Delivery batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Notification Worker stopped")
			return
		}
	}
}

func (w *NotificationWorker) deliverBatch(ctx context.Context) error {
	var pending []models.Notification
	if err := w.db.Where("status = ?", models.NotificationPending).
		Order("created_at ASC").
		Limit(50).
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("📤 [MAIL] Delivering %d pending notification(s)…", len(pending))
	var sent, failed int
	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n := &pending[i]
		if err := w.send(n); err != nil {
			failed++
			w.db.Model(n).Updates(map[string]interface{}{
				"status":     models.NotificationFailed,
				"last_error": err.Error(),
			})
			log.Printf("⚠️ [MAIL] Failed to deliver %s to %s: %v", n.Type, n.Recipient, err)
			continue
		}
		sent++
		now := time.Now()
		w.db.Model(n).Updates(map[string]interface{}{
			"status":  models.NotificationSent,
			"sent_at": &now,
		})
	}
	log.Printf("✅ [MAIL] Batch done: %d sent, %d failed", sent, failed)
	return nil
}

func (w *NotificationWorker) send(n *models.Notification) error {
	msg := w.render(n)

	if w.smtpAddr == "" {
		// Dev mode, mirrors the original's print-instead-of-sendmail
		log.Printf("📧 [MAIL:DEV]\n%s", msg)
		return nil
	}

	var auth smtp.Auth
	if w.smtpUser != "" {
		auth = smtp.PlainAuth("", w.smtpUser, w.smtpPass, w.smtpHost)
	}
	if err := smtp.SendMail(w.smtpAddr, auth, w.sender, []string{n.Recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (w *NotificationWorker) render(n *models.Notification) string {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", w.sender, n.Recipient, n.Subject)
	if w.replyTo != "" {
		headers += fmt.Sprintf("Reply-To: %s\r\n", w.replyTo)
	}
	return headers + "\r\n" + n.Body
}
