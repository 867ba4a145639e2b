package jobs

import (
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/anjiri1684/english_practice/services"
	log "github.com/sirupsen/logrus"
)

// CloseOverdueSessions ends sessions whose learner walked away before the timer ran out.
func CloseOverdueSessions() {
	log.Debug("Running job: CloseOverdueSessions...")

	grace := time.Duration(config.App.SessionGraceMinutes) * time.Minute
	closed, err := services.CloseOverdueSessions(time.Now(), grace)
	if err != nil {
		log.WithError(err).Error("Error closing overdue sessions")
		return
	}
	if closed > 0 {
		log.Infof("Closed %d overdue session(s).", closed)
	}
}

func CleanupRateLimiter(limiter *middleware.RateLimiter) func() {
	return func() {
		if removed := limiter.Cleanup(30 * time.Minute); removed > 0 {
			log.Debugf("Dropped %d idle rate limiter(s).", removed)
		}
	}
}
