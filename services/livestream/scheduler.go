package livestream

import (
	"context"
	"log"

	"github.com/roxas19/DRP/utils"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// ReminderSpec runs the reminder sweep every day at 08:00.
const ReminderSpec = "0 8 * * *"

// InitializeReminderScheduler starts the daily livestream reminder job. The
// returned cron is running; callers Stop it on shutdown.
func InitializeReminderScheduler(svc *Service, mailer utils.Mailer) (*cron.Cron, error) {
	log.Println("[LIVESTREAM-SCHEDULER] Initializing livestream reminder scheduler...")

	c := cron.New()
	_, err := c.AddFunc(ReminderSpec, func() {
		log.Println("[LIVESTREAM-SCHEDULER] Running daily livestream reminder check...")
		svc.RemindToday(context.Background(), mailer)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Println("[LIVESTREAM-SCHEDULER] Livestream scheduler started - runs daily at 8 AM")
	return c, nil
}

// RemindToday emails students about streams scheduled for the rest of today.
func (s *Service) RemindToday(ctx context.Context, mailer utils.Mailer) int {
	current := s.now()
	sent, err := s.SendReminders(ctx, mailer, current, now.With(current).EndOfDay())
	if err != nil {
		log.Printf("[LIVESTREAM-SCHEDULER] Error sending reminders: %v", err)
	}
	log.Printf("[LIVESTREAM-SCHEDULER] Sent reminders for %d livestreams", sent)
	return sent
}
