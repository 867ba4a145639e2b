package jobs

import (
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/robfig/cron/v3"
)

func Schedule(limiter *middleware.RateLimiter) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("*/15 * * * *", ExpireStaleTransactions); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("*/5 * * * *", CloseOverdueSessions); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@every 10m", CleanupRateLimiter(limiter)); err != nil {
		return nil, err
	}
	return c, nil
}
