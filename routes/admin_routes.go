package routes

import (
	"github.com/anjiri1684/english_practice/handlers"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router) {
	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", handlers.AdminListUsers)
	users.Post("/:id/tokens", handlers.AdminGrantTokens)

	packs := admin.Group("/token-packs")
	packs.Get("", handlers.AdminListTokenPacks)
	packs.Post("", handlers.AdminCreateTokenPack)
	packs.Put("/:id", handlers.AdminUpdateTokenPack)
	packs.Delete("/:id", handlers.AdminDeactivateTokenPack)

	admin.Get("/transactions", handlers.AdminListTransactions)
	admin.Get("/stats", handlers.AdminStats)
}
