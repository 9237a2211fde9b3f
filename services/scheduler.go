// services/scheduler.go
package services

import (
	"log"
	"time"

	"assassin-game-service/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *GameService) StartGameScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate scheduled games whose start time arrived
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var games []models.Game
			now := time.Now()
			err := s.DB.Where("status = ? AND start_at <= ?", models.StatusScheduled, now).
				Find(&games).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, g := range games {
				if err := s.activateGame(g.ID); err != nil {
					log.Printf("[Scheduler] Failed to start game %s: %v", g.ID, err)
				} else {
					log.Printf("✅ Auto-started game: %s", g.Name)
				}
			}
		}),
	)
}
