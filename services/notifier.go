// services/notifier.go
package services

import (
	"fmt"
	"log"
	"os"

	"assassin-game-service/engine"
	"assassin-game-service/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Notifier queues outbound mail as Notification rows; the notification
// worker handles delivery. Queue failures are logged and swallowed —
// the elimination they describe has already committed.
type Notifier struct {
	DB          *gorm.DB
	emailDomain string
	titler      cases.Caser
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{
		DB:          db,
		emailDomain: os.Getenv("PLAYER_EMAIL_DOMAIN"), // e.g. "stanford.edu"
		titler:      cases.Title(language.English),
	}
}

// QueueKill briefs the killer on their inherited target.
func (n *Notifier) QueueKill(game *models.Game, out engine.Outcome) {
	body := fmt.Sprintf(
		"Target eliminated.\n\nYour next target is %s.",
		n.titler.String(out.NewTargetName),
	)
	if game.RequiresProof() {
		body += fmt.Sprintf(" Their secret word is %q.", out.NewTargetSecret)
	}
	body += "\n\nGood hunting."

	n.queue(game, out.KillerID, models.NotificationKill, "Target Successfully Eliminated", body)
}

// QueueVictory congratulates the sole survivor.
func (n *Notifier) QueueVictory(game *models.Game, winnerID string) {
	body := "Congratulations!\n\nYou are the last one standing. The game is yours."
	n.queue(game, winnerID, models.NotificationVictory, "Congratulations!", body)
}

func (n *Notifier) queue(game *models.Game, playerID, kind, subject, body string) {
	var player models.Player
	if err := n.DB.First(&player, "game_id = ? AND id = ?", game.ID, playerID).Error; err != nil {
		log.Printf("⚠️ [NOTIFIER] Player %s/%s not found, dropping %s notification", game.ID, playerID, kind)
		return
	}

	recipient := player.Email
	if recipient == "" && n.emailDomain != "" {
		recipient = player.ID + "@" + n.emailDomain
	}
	if recipient == "" {
		log.Printf("⚠️ [NOTIFIER] No address for %s/%s, dropping %s notification", game.ID, playerID, kind)
		return
	}

	notif := models.Notification{
		ID:        uuid.NewString(),
		GameID:    game.ID,
		PlayerID:  playerID,
		Type:      kind,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    models.NotificationPending,
	}
	if err := n.DB.Create(&notif).Error; err != nil {
		log.Printf("❌ [NOTIFIER] Failed to queue %s notification for %s: %v", kind, recipient, err)
		return
	}
	log.Printf("📨 [NOTIFIER] Queued %s notification for %s", kind, recipient)
}
