package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/adilenc/BudgetManager/internal/auth"
	budgets "github.com/adilenc/BudgetManager/internal/budget"
	database "github.com/adilenc/BudgetManager/internal/db"
	expenses "github.com/adilenc/BudgetManager/internal/expense"
	"github.com/adilenc/BudgetManager/internal/realtime"
	"github.com/adilenc/BudgetManager/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router          *http.ServeMux
	dbService       *database.DBService
	authHandler     *auth.Handler
	authService     auth.Service
	userHandler     *user.Handler
	budgetHandler   *budgets.Handler
	expenseHandler  *expenses.Handler
	realtimeHandler *realtime.Handler
}

func NewServer(
	dbService *database.DBService,
	authHandler *auth.Handler,
	authService auth.Service,
	userHandler *user.Handler,
	budgetHandler *budgets.Handler,
	expenseHandler *expenses.Handler,
	realtimeHandler *realtime.Handler,
) *Server {
	return &Server{
		router:          http.NewServeMux(),
		dbService:       dbService,
		authHandler:     authHandler,
		authService:     authService,
		userHandler:     userHandler,
		budgetHandler:   budgetHandler,
		expenseHandler:  expenseHandler,
		realtimeHandler: realtimeHandler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	stats := s.dbService.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, stats)
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	// Protected routes (using JWT Access Token Middleware)
	withAuth := s.authService.JWTAccessTokenMiddleware()

	protectedRoutes := http.NewServeMux()
	protectedRoutes.Handle("POST /api/protected/logout", withAuth(http.HandlerFunc(s.authHandler.HandleLogout)))
	protectedRoutes.Handle("GET /api/protected/profile", withAuth(http.HandlerFunc(s.userHandler.HandleGetUserProfile)))
	protectedRoutes.Handle("PUT /api/protected/profile", withAuth(http.HandlerFunc(s.userHandler.HandleUpdateProfile)))

	// BUDGETS API
	protectedRoutes.Handle("POST /api/protected/budgets", withAuth(http.HandlerFunc(s.budgetHandler.CreateBudget)))
	protectedRoutes.Handle("GET /api/protected/budgets", withAuth(http.HandlerFunc(s.budgetHandler.GetAllBudgets)))
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.GetBudget)))
	protectedRoutes.Handle("PUT /api/protected/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.UpdateBudget)))
	protectedRoutes.Handle("DELETE /api/protected/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.DeleteBudget)))

	// EXPENSES API
	protectedRoutes.Handle("POST /api/protected/expenses", withAuth(http.HandlerFunc(s.expenseHandler.CreateExpense)))
	protectedRoutes.Handle("GET /api/protected/expenses", withAuth(http.HandlerFunc(s.expenseHandler.GetAllExpenses)))
	protectedRoutes.Handle("GET /api/protected/expenses/filter", withAuth(http.HandlerFunc(s.expenseHandler.FilterExpenses)))
	protectedRoutes.Handle("GET /api/protected/expenses/by-budget/{category}", withAuth(http.HandlerFunc(s.expenseHandler.GetExpensesByBudget)))
	protectedRoutes.Handle("GET /api/protected/expenses/{expenseID}", withAuth(http.HandlerFunc(s.expenseHandler.GetExpense)))
	protectedRoutes.Handle("PUT /api/protected/expenses/{expenseID}", withAuth(http.HandlerFunc(s.expenseHandler.UpdateExpense)))
	protectedRoutes.Handle("DELETE /api/protected/expenses/{expenseID}", withAuth(http.HandlerFunc(s.expenseHandler.DeleteExpense)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("GET /ws", http.HandlerFunc(s.realtimeHandler.HandleConnection))
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

// StartSweepScheduler periodically pings registered push channels and evicts
// the dead ones.
func StartSweepScheduler(registry *realtime.Registry) error {
	c := cron.New()
	_, err := c.AddFunc("@every 30s", func() {
		registry.Sweep()
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	jwtManager := auth.NewJWTManager()

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)
	userHandler := user.NewHandler(userService, jwtManager, auth.DefaultAccessTokenDuration)

	authService := auth.NewAuthService(userService, jwtManager)
	authHandler := auth.NewHandler(authService)

	registry := realtime.NewRegistry()
	realtimeHandler := realtime.NewHandler(registry, jwtManager)

	budgetRepo := budgets.NewBudgetRepository(dbService.DB)
	budgetService := budgets.NewBudgetService(budgetRepo, registry)
	budgetHandler := budgets.NewHandler(budgetService, respondJSON, respondError)

	expenseRepo := expenses.NewExpenseRepository(dbService.DB)
	expenseService := expenses.NewExpenseService(expenseRepo, budgetService, registry)
	expenseHandler := expenses.NewHandler(expenseService, respondJSON, respondError)

	server := NewServer(dbService, authHandler, authService, userHandler, budgetHandler, expenseHandler, realtimeHandler)
	server.RegisterRoutes()

	if err := StartSweepScheduler(registry); err != nil {
		log.Fatalf("Sweep scheduler didn't start, stopping the app ...")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	handler := loggingMiddleware(server.router)
	log.Printf("Server starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
