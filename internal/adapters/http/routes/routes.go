package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"saccolink/internal/adapters/http/handlers"
	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/adapters/persistence/repositories"
	"saccolink/internal/config"
	"saccolink/internal/core/services"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	regionRepo := repositories.NewRegionRepository(db)
	saccoRepo := repositories.NewSaccoRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	savingsRepo := repositories.NewSavingsRepository(db)
	financeRepo := repositories.NewFinanceRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, saccoRepo, cfg)
	notificationService := services.NewNotificationService(notificationRepo)
	activityService := services.NewActivityService(activityRepo)
	tenancyService := services.NewTenancyService(regionRepo, saccoRepo, userRepo)
	memberService := services.NewMemberService(memberRepo, saccoRepo, userRepo, notificationService, activityService)
	loanService := services.NewLoanService(loanRepo, memberRepo, saccoRepo, notificationService, activityService)
	savingsService := services.NewSavingsService(savingsRepo, memberRepo, saccoRepo, notificationService, activityService)
	financeService := services.NewFinanceService(financeRepo, saccoRepo, activityService)
	reportService := services.NewReportService(memberRepo, loanRepo, savingsRepo, financeRepo, saccoRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	tenancyHandler := handlers.NewTenancyHandler(tenancyService)
	memberHandler := handlers.NewMemberHandler(memberService)
	loanHandler := handlers.NewLoanHandler(loanService)
	savingsHandler := handlers.NewSavingsHandler(savingsService)
	financeHandler := handlers.NewFinanceHandler(financeService)
	reportHandler := handlers.NewReportHandler(reportService, activityService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	authed := middleware.AuthMiddleware(authService)

	// Auth routes (public, rate-limited)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", middleware.AuthRateLimiter(), authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", authed, authHandler.Me)
	authRoutes.Post("/logout-all", authed, authHandler.LogoutAll)

	// Region & district routes (system admin manages, staff reads)
	regionRoutes := apiV1.Group("/regions", authed)
	setupRegionRoutes(regionRoutes, tenancyHandler)

	// Sacco routes
	saccoRoutes := apiV1.Group("/saccos", authed)
	setupSaccoRoutes(saccoRoutes, tenancyHandler)

	// Admin account routes (system admin only)
	adminRoutes := apiV1.Group("/admin", authed, middleware.SystemAdminOnly())
	adminRoutes.Post("/users", tenancyHandler.CreateAdminUser)

	// Member routes
	memberRoutes := apiV1.Group("/members", authed)
	setupMemberRoutes(memberRoutes, memberHandler)

	// Loan routes
	loanRoutes := apiV1.Group("/loans", authed)
	setupLoanRoutes(loanRoutes, loanHandler)

	// Savings routes
	savingsRoutes := apiV1.Group("/savings", authed)
	setupSavingsRoutes(savingsRoutes, savingsHandler)

	// Finance routes (staff only)
	financeRoutes := apiV1.Group("/finance", authed, middleware.StaffOnly())
	setupFinanceRoutes(financeRoutes, financeHandler)

	// Dashboard & activity routes
	dashboardRoutes := apiV1.Group("/dashboard", authed)
	dashboardRoutes.Get("/", reportHandler.Dashboard)
	dashboardRoutes.Get("/activity", middleware.StaffOnly(), reportHandler.RecentActivity)

	// Notification routes
	notificationRoutes := apiV1.Group("/notifications", authed)
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.Put("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Put("/:id/read", notificationHandler.MarkRead)
}

// setupRegionRoutes configures region and district routes
func setupRegionRoutes(router fiber.Router, handler *handlers.TenancyHandler) {
	router.Get("/", handler.ListRegions)
	router.Post("/", middleware.SystemAdminOnly(), handler.CreateRegion)
	router.Get("/districts", handler.ListDistricts)
	router.Post("/districts", middleware.SystemAdminOnly(), handler.CreateDistrict)
}

// setupSaccoRoutes configures sacco routes
func setupSaccoRoutes(router fiber.Router, handler *handlers.TenancyHandler) {
	router.Get("/", middleware.StaffOnly(), handler.ListSaccos)
	router.Get("/:id", handler.GetSacco)
	router.Post("/", middleware.RegionalOrAbove(), handler.RegisterSacco)
	router.Put("/:id", middleware.StaffOnly(), handler.UpdateSacco)
	router.Put("/:id/active", middleware.RegionalOrAbove(), handler.SetSaccoActive)
}

// setupMemberRoutes configures member routes
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Get("/me", handler.Me)
	router.Get("/search", middleware.StaffOnly(), handler.Search)
	router.Get("/groups", handler.ListGroups)
	router.Post("/groups", middleware.StaffOnly(), handler.CreateGroup)
	router.Get("/", middleware.StaffOnly(), handler.List)
	router.Post("/", middleware.StaffOnly(), handler.Register)
	router.Get("/:id", handler.Get)
	router.Put("/:id/status", middleware.StaffOnly(), handler.UpdateStatus)
}

// setupLoanRoutes configures loan lifecycle routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Products
	router.Get("/products", handler.ListProducts)
	router.Post("/products", middleware.StaffOnly(), handler.CreateProduct)

	// Applications & lifecycle
	router.Get("/", handler.List)
	router.Post("/", handler.Apply)
	router.Get("/:id", handler.Get)
	router.Get("/:id/balance", handler.Balance)
	router.Put("/:id/approve", middleware.StaffOnly(), handler.Approve)
	router.Put("/:id/decline", middleware.StaffOnly(), handler.Decline)
	router.Put("/:id/withdraw", handler.Withdraw)
	router.Put("/:id/disburse", middleware.StaffOnly(), handler.Disburse)
	router.Put("/:id/write-off", middleware.StaffOnly(), handler.WriteOff)
	router.Put("/:id/default", middleware.StaffOnly(), handler.MarkDefaulted)

	// Repayments
	router.Get("/:id/repayments", handler.ListRepayments)
	router.Post("/:id/repayments", middleware.StaffOnly(), handler.AddRepayment)
}

// setupSavingsRoutes configures savings routes
func setupSavingsRoutes(router fiber.Router, handler *handlers.SavingsHandler) {
	// Products
	router.Get("/products", handler.ListProducts)
	router.Post("/products", middleware.StaffOnly(), handler.CreateProduct)

	// Accounts & ledger
	router.Get("/accounts", handler.ListAccounts)
	router.Post("/accounts", middleware.StaffOnly(), handler.OpenAccount)
	router.Get("/accounts/:id", handler.GetAccount)
	router.Put("/accounts/:id/status", middleware.StaffOnly(), handler.SetAccountStatus)
	router.Get("/accounts/:id/transactions", handler.ListTransactions)
	router.Post("/accounts/:id/transactions", middleware.StaffOnly(), handler.PostTransaction)
}

// setupFinanceRoutes configures funding, expense and project routes
func setupFinanceRoutes(router fiber.Router, handler *handlers.FinanceHandler) {
	router.Get("/funding-sources", handler.ListFundingSources)
	router.Post("/funding-sources", handler.CreateFundingSource)
	router.Get("/fundings", handler.ListFundings)
	router.Post("/fundings", handler.RecordFunding)

	router.Get("/expense-categories", handler.ListExpenseCategories)
	router.Post("/expense-categories", handler.CreateExpenseCategory)
	router.Get("/expenses", handler.ListExpenses)
	router.Post("/expenses", handler.RecordExpense)

	router.Get("/projects", handler.ListProjects)
	router.Post("/projects", handler.CreateProject)
	router.Put("/projects/:id/status", handler.UpdateProjectStatus)
}
