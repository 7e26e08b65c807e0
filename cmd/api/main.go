package main

import (
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"slotswapper/cmd/internal/domain/sqlite"
	"slotswapper/cmd/internal/domain/sqlite/repository"
	cognitoclient "slotswapper/cmd/internal/integration/aws/cognito"
	"slotswapper/cmd/internal/routes"
	"slotswapper/cmd/internal/service"
	"slotswapper/cmd/internal/utils"
	"slotswapper/cmd/internal/utils/validators"
)

func main() {
	validate := validator.New()
	registerValidators(validate)

	err := godotenv.Load()
	if err != nil {
		log.Fatal("failed to load .env file", err)
	}

	// Init SQLite
	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "./database.db"
	}
	db, err := sqlite.Init(dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}

	// Cognito client
	cogClient, err := cognitoclient.InitCognitoClient()
	if err != nil {
		log.Fatal("failed to initialize cognito client", err)
	}

	err = utils.InitTokenVerifier(os.Getenv("COGNITO_JWKS_URL"))
	if err != nil {
		log.Fatal("failed to initialize token verifier", err)
	}

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	swapRepo := repository.NewSwapRequestRepository(db)
	txManager := repository.NewTxManager(db)

	// Getting services
	userService := service.NewUserService(userRepo, validate, cogClient)
	slotService := service.NewSlotService(slotRepo, userRepo, txManager, validate)
	swapService := service.NewSwapService(userRepo, slotRepo, swapRepo, txManager, validate)

	// Getting routes
	userRoutes := routes.NewUserDefault(userService)
	slotRoutes := routes.NewSlotDefault(slotService)
	swapRoutes := routes.NewSwapDefault(swapService)

	e := echo.New()
	e.Use(middleware.CORS())

	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
	})

	// Events
	e.GET("/api/events", slotRoutes.GetSlots)
	e.POST("/api/events", slotRoutes.CreateSlot)
	e.GET("/api/events/:id", slotRoutes.GetSlot)
	e.PUT("/api/events/:id", slotRoutes.UpdateSlot)
	e.DELETE("/api/events/:id", slotRoutes.DeleteSlot)

	// Swaps
	e.GET("/api/swappable-slots", swapRoutes.GetSwappableSlots)
	e.POST("/api/swap-request", swapRoutes.CreateSwapRequest)
	e.POST("/api/swap-response/:id", swapRoutes.RespondToSwapRequest)
	e.GET("/api/swap-requests/incoming", swapRoutes.GetIncoming)
	e.GET("/api/swap-requests/outgoing", swapRoutes.GetOutgoing)

	// Users
	e.GET("/api/users", userRoutes.GetUsers)
	e.GET("/api/users/:id", userRoutes.GetUser)
	e.POST("/api/users", userRoutes.CreateUser)
	e.POST("/api/users/login", userRoutes.CreateLogin)
	e.POST("/api/users/verify", userRoutes.VerifySignup)

	err = e.Start(":6060")
	if err != nil {
		e.Logger.Fatal(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", validators.HasUpper)
	_ = validate.RegisterValidation("haslower", validators.HasLower)
	_ = validate.RegisterValidation("hasdigit", validators.HasDigit)
	_ = validate.RegisterValidation("hasspecial", validators.HasSpecial)
	_ = validate.RegisterValidation("nodupes", validators.NoDupes)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
}
