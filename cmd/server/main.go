package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/receipt-organizer/internal/api/handlers"
	"github.com/dvloznov/receipt-organizer/internal/api/middleware"
	"github.com/dvloznov/receipt-organizer/internal/config"
	"github.com/dvloznov/receipt-organizer/internal/filestore"
	"github.com/dvloznov/receipt-organizer/internal/googleauth"
	"github.com/dvloznov/receipt-organizer/internal/ledger"
	"github.com/dvloznov/receipt-organizer/internal/logger"
	"github.com/dvloznov/receipt-organizer/internal/receipt"
	"github.com/dvloznov/receipt-organizer/internal/scan"
	"github.com/dvloznov/receipt-organizer/internal/sheetstore"
)

func main() {
	var (
		port         = flag.String("port", "", "HTTP server port (overrides PORT env)")
		profilesFile = flag.String("profiles", "", "path to profiles file (overrides PROFILES_FILE env)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port == "" {
		*port = fmt.Sprintf("%d", cfg.Server.Port)
	}
	if *profilesFile == "" {
		*profilesFile = cfg.Profiles.File
	}

	profiles, err := config.LoadProfiles(*profilesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load profiles")
	}

	ctx := context.Background()

	opts, err := googleauth.ClientOptions(cfg.Google.ServiceAccountJSON, cfg.Google.CredentialsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, googleauth.SetupInstructions)
		log.Fatal().Err(err).Msg("Failed to resolve Google credentials")
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Sheets client")
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Drive client")
	}

	// One coordinator per profile. All profiles share the two API clients.
	validator := receipt.NewValidator(profiles.Categories)
	services := make(map[string]*ledger.Service, len(profiles.Profiles))
	for _, name := range profiles.Names() {
		prof, _ := profiles.Get(name)
		tab := sheetstore.NewWithService(sheetsSvc, prof.SpreadsheetID)
		files := filestore.NewDriveWithService(driveSvc, prof.DriveFolderID)
		services[name] = ledger.NewService(tab, files, validator, logger.WithComponent(log, "ledger."+name))
	}

	var scanner *scan.Scanner
	if cfg.ScanEnabled() {
		scanner = scan.New(cfg.Scan.Model, profiles.Categories)
		log.Info().Str("model", cfg.Scan.Model).Msg("Receipt scanning enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - receipt scanning disabled")
	}

	receiptsHandler := handlers.NewReceiptsHandler(services, log)
	categoriesHandler := handlers.NewCategoriesHandler(profiles.Categories)
	profilesHandler := handlers.NewProfilesHandler(profiles.Names())
	scanHandler := handlers.NewScanHandler(scanner, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			receiptsHandler.List(w, r)
		case http.MethodPost:
			receiptsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/receipts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			id := strings.TrimPrefix(r.URL.Path, "/api/receipts/")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Receipt ID is required")
				return
			}
			receiptsHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/profiles", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			profilesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			scanHandler.Suggest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", *port).
			Strs("profiles", profiles.Names()).
			Msg("Starting receipt organizer server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
