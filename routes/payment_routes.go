package routes

import (
	"github.com/anjiri1684/english_practice/handlers"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(api fiber.Router) {
	payments := api.Group("/payments")
	payments.Post("/notification", handlers.PaymentNotification)
	payments.Post("/checkout", middleware.Protected(), handlers.Checkout)
	payments.Get("/transactions", middleware.Protected(), handlers.ListMyTransactions)
}

func ReferralRoutes(api fiber.Router) {
	referral := api.Group("/referral", middleware.Protected())
	referral.Get("", handlers.GetReferral)
	referral.Post("/apply", handlers.ApplyReferral)
	referral.Post("/claim", handlers.ClaimReferral)
}
