package routes

import (
	"github.com/anjiri1684/english_practice/handlers"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(api fiber.Router) {
	me := api.Group("/me", middleware.Protected())
	me.Get("", handlers.GetMyProfile)
	me.Put("", handlers.UpdateMyProfile)
	me.Put("/password", handlers.ChangeMyPassword)
	me.Get("/upload-signature", handlers.GetUploadSignature)
}

func TokenRoutes(api fiber.Router) {
	tokens := api.Group("/tokens")
	tokens.Get("/packs", handlers.ListTokenPacks)
	tokens.Get("", middleware.Protected(), handlers.GetTokenBalance)
}
