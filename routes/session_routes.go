package routes

import (
	"github.com/anjiri1684/english_practice/handlers"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/services"
	"github.com/gofiber/fiber/v2"
)

func SessionRoutes(api fiber.Router, limiter *middleware.RateLimiter) {
	for _, kind := range []models.SessionKind{models.KindDailyTalk, models.KindDebate, models.KindStoryTelling} {
		h := handlers.NewSessionHandler(kind)
		group := api.Group("/"+services.Kinds[kind].Path, middleware.Protected())

		group.Post("", h.Create)
		group.Get("", h.List)
		group.Get("/:id", h.Get)
		group.Post("/:id/turn", limiter.Handler(), h.Turn)
		group.Post("/:id/end", h.End)
		group.Post("/:id/save", limiter.Handler(), h.Save)
		group.Get("/:id/report", h.Report)
		if kind == models.KindStoryTelling {
			group.Post("/:id/image", limiter.Handler(), h.Illustrate)
		}
	}
}

func EssayRoutes(api fiber.Router, limiter *middleware.RateLimiter) {
	essays := api.Group("/essays", middleware.Protected())
	essays.Post("/topic", limiter.Handler(), handlers.GenerateEssayTopic)
	essays.Post("", limiter.Handler(), handlers.SubmitEssay)
	essays.Get("", handlers.ListEssays)
	essays.Get("/:id", handlers.GetEssay)
}
