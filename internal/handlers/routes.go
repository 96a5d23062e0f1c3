package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/middleware"
	"github.com/farmhand-id/platform_be/internal/models"
)

type Deps struct {
	DB            *gorm.DB
	Gate          *messaging.Gate
	Sessions      SessionRevoker
	JWTSecret     string
	JWTExpiresMin int
	CORSOrigins   string
	AccessLog     bool
}

// NewApp builds the fiber app with every route mounted.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "internal server error"
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
				msg = fe.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": msg})
		},
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	if d.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			ExposeHeaders:    "Content-Length",
			AllowCredentials: true,
		}))
	}

	authH := &AuthHandler{
		DB:        d.DB,
		JWTSecret: d.JWTSecret,
		Expires:   d.JWTExpiresMin,
		Sessions:  d.Sessions,
	}
	profileH := NewProfileHandler(d.DB)
	chatH := NewMessagingHandler(d.Gate)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)

	// protected (bearer token or cookie)
	protected := api.Group("/",
		middleware.JWTBearer(d.Gate),
		middleware.AttachJWTLocals(),
	)

	protected.Post("/auth/logout", authH.Logout)
	protected.Get("/me", profileH.Me)
	protected.Get("/profiles/:id", profileH.Get)
	protected.Put("/profile", profileH.Update)

	chat := protected.Group("/",
		middleware.RequireRoles(string(models.RoleFarmer), string(models.RoleLaborer)),
	)
	chatH.Register(chat)

	return app
}
