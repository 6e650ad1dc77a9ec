package main

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/plcore/PnLReporter/internal/config"
	database "github.com/plcore/PnLReporter/internal/db"
	"github.com/plcore/PnLReporter/internal/pnl/application"
	"github.com/plcore/PnLReporter/internal/pnl/infrastructure"
	"github.com/plcore/PnLReporter/internal/pnl/infrastructure/rates"
	"github.com/plcore/PnLReporter/internal/pnl/interfaces"
	"github.com/plcore/PnLReporter/internal/storage"
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

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router          *http.ServeMux
	categoryHandler *interfaces.CategoryHandler
	ledgerHandler   *interfaces.LedgerHandler
	reportHandler   *interfaces.ReportHandler
	dbService       *database.DBService
}

func NewServer(categoryHandler *interfaces.CategoryHandler, ledgerHandler *interfaces.LedgerHandler, reportHandler *interfaces.ReportHandler, dbService *database.DBService) *Server {
	return &Server{
		router:          http.NewServeMux(),
		categoryHandler: categoryHandler,
		ledgerHandler:   ledgerHandler,
		reportHandler:   reportHandler,
		dbService:       dbService,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

func (s *Server) RegisterRoutes() {
	apiRoutes := http.NewServeMux()

	apiRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	apiRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// CATEGORY API
	apiRoutes.Handle("GET /api/categories", http.HandlerFunc(s.categoryHandler.GetCategories))
	apiRoutes.Handle("POST /api/categories", http.HandlerFunc(s.categoryHandler.CreateCategory))
	apiRoutes.Handle("GET /api/categories/{id}", http.HandlerFunc(s.categoryHandler.GetCategory))
	apiRoutes.Handle("PATCH /api/categories/{id}", http.HandlerFunc(s.categoryHandler.UpdateCategory))
	apiRoutes.Handle("DELETE /api/categories/{id}", http.HandlerFunc(s.categoryHandler.DeleteCategory))
	apiRoutes.Handle("POST /api/categories/{id}/move", http.HandlerFunc(s.categoryHandler.MoveCategory))

	// MANUAL LEDGER API
	apiRoutes.Handle("PUT /api/ledger/revenue", http.HandlerFunc(s.ledgerHandler.UpsertRevenue))
	apiRoutes.Handle("POST /api/ledger/expenses", http.HandlerFunc(s.ledgerHandler.CreateExpense))
	apiRoutes.Handle("GET /api/ledger/entries", http.HandlerFunc(s.ledgerHandler.ListEntries))
	apiRoutes.Handle("GET /api/ledger/entries/{id}", http.HandlerFunc(s.ledgerHandler.GetEntry))
	apiRoutes.Handle("PATCH /api/ledger/entries/{id}", http.HandlerFunc(s.ledgerHandler.UpdateEntry))
	apiRoutes.Handle("DELETE /api/ledger/entries/{id}", http.HandlerFunc(s.ledgerHandler.DeleteEntry))
	apiRoutes.Handle("DELETE /api/ledger", http.HandlerFunc(s.ledgerHandler.DeleteByPeriod))

	// REPORTS API
	apiRoutes.Handle("GET /api/reports/{year}", http.HandlerFunc(s.reportHandler.GetYearlyReport))
	apiRoutes.Handle("GET /api/reports/{year}/{month}/duplicates", http.HandlerFunc(s.reportHandler.GetDuplicates))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", apiRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := storage.RunMigrations(cfg.DBConnectionString); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}

	dbService, err := database.NewDBService(cfg.DBConnectionString)
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	manualRepo := infrastructure.NewManualEntryRepository(dbService.DB)
	bankStore := infrastructure.NewBankTransactionStore(dbService.DB)
	processorStore := infrastructure.NewProcessorTransactionStore(dbService.DB)
	ratesClient := rates.NewNBPClient(cfg.NBPAPIURL)

	categoryService := application.NewCategoryService(categoryRepo, logger, bankStore, processorStore, manualRepo)
	ledgerService := application.NewLedgerService(manualRepo, categoryService, cfg.MinReportYear, cfg.MaxReportYear, logger)
	reportService := application.NewReportService(
		categoryService,
		ledgerService,
		bankStore,
		processorStore,
		ratesClient,
		application.ReportConfig{
			ReportingCurrency: cfg.ReportingCurrency,
			MinYear:           cfg.MinReportYear,
			MaxYear:           cfg.MaxReportYear,
		},
		logger,
	)
	duplicateService := application.NewDuplicateService(bankStore, processorStore, cfg.MinReportYear, cfg.MaxReportYear, logger)

	categoryHandler := interfaces.NewCategoryHandler(categoryService, respondJSON, respondError)
	ledgerHandler := interfaces.NewLedgerHandler(ledgerService, respondJSON, respondError)
	reportHandler := interfaces.NewReportHandler(reportService, duplicateService, respondJSON, respondError)

	server := NewServer(categoryHandler, ledgerHandler, reportHandler, dbService)
	server.RegisterRoutes()

	handler := loggingMiddleware(server.router)
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
