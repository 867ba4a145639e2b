package jobs

import (
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/services"
	log "github.com/sirupsen/logrus"
)

// ExpireStaleTransactions fails checkouts that never received a final notification.
func ExpireStaleTransactions() {
	log.Debug("Running job: ExpireStaleTransactions...")

	cutoff := time.Now().Add(-config.App.PendingTransactionTTL)
	expired, err := services.ExpireStaleTransactions(cutoff)
	if err != nil {
		log.WithError(err).Error("Error expiring stale transactions")
		return
	}
	if expired > 0 {
		log.Infof("Marked %d pending transaction(s) as failed.", expired)
	}
}
