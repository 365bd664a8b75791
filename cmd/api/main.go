package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/soko-dev/fulfillment-backend/internal/database"
	"github.com/soko-dev/fulfillment-backend/internal/modules/activity"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
	"github.com/soko-dev/fulfillment-backend/internal/modules/inspection"
	"github.com/soko-dev/fulfillment-backend/internal/modules/intake"
	"github.com/soko-dev/fulfillment-backend/internal/modules/order"
	"github.com/soko-dev/fulfillment-backend/internal/modules/product"
	"github.com/soko-dev/fulfillment-backend/internal/modules/shipping"
	"github.com/soko-dev/fulfillment-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	db, err := database.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	fmt.Println("Successfully connected to the database!")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	demoMode := os.Getenv("APP_ENV") == "demo"

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(auth.Middleware(jwtSecret))

	// ── Phase 1: Identity ───────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Phase 2: Audit Trail ────────────────────────────────
	activityRepo := activity.NewPostgresRepository(db)
	activityService := activity.NewService(activityRepo)
	activity.NewHandler(activityService).RegisterRoutes(router)

	// ── Phase 3: Intake & Product Lifecycle ─────────────────
	intakeRepo := intake.NewPostgresRepository(db)
	intakeService := intake.NewService(intakeRepo)
	intake.NewHandler(intakeService).RegisterRoutes(router)

	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo)
	product.NewHandler(productService).RegisterRoutes(router)

	inspectionRepo := inspection.NewPostgresRepository(db)
	inspectionService := inspection.NewService(inspectionRepo)
	inspection.NewHandler(inspectionService).RegisterRoutes(router)

	// ── Phase 4: Fulfillment ────────────────────────────────
	gateways := shipping.GatewayRegistry{
		shipping.CarrierYamato: shipping.NewStubGateway(shipping.CarrierYamato),
		shipping.CarrierSagawa: shipping.NewStubGateway(shipping.CarrierSagawa),
		shipping.CarrierFedex:  shipping.NewStubGateway(shipping.CarrierFedex),
		shipping.CarrierDHL:    shipping.NewStubGateway(shipping.CarrierDHL),
	}
	shippingRepo := shipping.NewPostgresRepository(db)
	shippingService := shipping.NewService(shippingRepo, gateways, demoMode)
	shipping.NewHandler(shippingService).RegisterRoutes(router)

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, shippingService)
	order.NewHandler(orderService).RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Server starting on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
