package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-reimbursement/internal"
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-reimbursement/internal/approval/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	authPostgres "github.com/frahmantamala/expense-reimbursement/internal/auth/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-reimbursement/internal/category/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/company"
	companyPostgres "github.com/frahmantamala/expense-reimbursement/internal/company/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/core/events"
	"github.com/frahmantamala/expense-reimbursement/internal/currency"
	"github.com/frahmantamala/expense-reimbursement/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-reimbursement/internal/expense/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/notification"
	"github.com/frahmantamala/expense-reimbursement/internal/transport"
	"github.com/frahmantamala/expense-reimbursement/internal/transport/middleware"
	"github.com/frahmantamala/expense-reimbursement/internal/transport/rest"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
	userPostgres "github.com/frahmantamala/expense-reimbursement/internal/user/postgres"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	// repositories
	userRepo := userPostgres.NewUserRepository(deps.Gorm)
	companyRepo := companyPostgres.NewCompanyRepository(deps.Gorm)
	categoryRepo := categoryPostgres.NewCategoryRepository(deps.Gorm)
	expenseRepo := expensePostgres.NewExpenseRepository(deps.Gorm)
	actionRepo := approvalPostgres.NewActionRepository(deps.Gorm)
	ruleRepo := approvalPostgres.NewRuleRepository(deps.DB)
	authRepo := authPostgres.NewRepository(deps.Gorm)

	// services
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokens, cfg.Security.BCryptCost, lg)
	userService := user.NewService(userRepo, lg)
	companyService := company.NewService(companyRepo, lg)
	categoryService := category.NewService(categoryRepo, lg)

	rates := currency.NewClient(currency.Config{
		BaseURL: cfg.Currency.BaseURL,
		Timeout: cfg.Currency.Timeout,
	}, lg)

	expenseService := expense.NewService(expenseRepo, expense.Collaborators{
		Resolver:   approval.NewResolver(ruleRepo, userService, lg),
		Converter:  currency.NewConverter(rates, lg),
		Users:      userService,
		Companies:  companyService,
		Categories: categoryService,
		Actions:    actionRepo,
		Events:     deps.EventBus,
	}, lg)

	notification.NewEventHandler(userService, notification.NewLogNotifier(lg), lg).
		RegisterEventHandlers(deps.EventBus)

	var validator func(http.Handler) http.Handler
	if cfg.Server.OpenAPISpecPath != "" {
		doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPISpecPath)
		if err != nil {
			return err
		}
		validator, err = middleware.OpenAPIValidator(doc)
		if err != nil {
			return err
		}
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, rest.Handlers{
		Auth:     auth.NewHandler(base, authService),
		Roles:    auth.NewRoleAuthorization(base, lg),
		User:     user.NewHandler(base, userService),
		Company:  company.NewHandler(base, companyService),
		Category: category.NewHandler(base, categoryService),
		Expense:  expense.NewHandler(base, expenseService),
	}, rest.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		OpenAPISpecPath: cfg.Server.OpenAPISpecPath,
		Validator:       validator,
	}, lg)

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, lg, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gormDB,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
	}, nil
}

// initDB opens the pgx backed pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
