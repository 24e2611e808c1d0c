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

	"printdrop/internal/accounts"
	"printdrop/internal/api"
	"printdrop/internal/files"
	"printdrop/internal/logging"
	"printdrop/internal/relay"
	"printdrop/internal/store"
	"printdrop/internal/wallet"
)

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func printStats(st *store.SQLiteStore) {
	ctx := context.Background()
	stats, err := st.GetStats(ctx)
	if err != nil {
		logging.Internal.Fatalf("failed to get stats: %v", err)
	}

	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           printdrop Statistics           ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Users:           %-22d║\n", stats.TotalUsers)
	fmt.Printf("║  Kiosks:          %-22d║\n", stats.TotalKiosks)
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Total Files:     %-22d║\n", stats.TotalFiles)
	fmt.Printf("║  Total Storage:   %-22s║\n", formatBytes(stats.TotalBytes))
	fmt.Println("╠══════════════════════════════════════════╣")
	if !stats.OldestFile.IsZero() {
		fmt.Printf("║  Oldest File:     %-22s║\n", stats.OldestFile.Format("2006-01-02 15:04"))
		fmt.Printf("║  Newest File:     %-22s║\n", stats.NewestFile.Format("2006-01-02 15:04"))
	} else {
		fmt.Println("║  No files in database                    ║")
	}
	fmt.Println("╚══════════════════════════════════════════╝")
}

func main() {
	addr := flag.String("addr", ":4000", "HTTP listen address")
	dbPath := flag.String("db", "printdrop.db", "SQLite database path")
	storagePath := flag.String("storage", "./uploads", "File storage directory")
	showStats := flag.Bool("stats", false, "Show database statistics and exit")
	devMode := flag.Bool("dev", false, "Development mode: disables CORS restrictions and rate limiting")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated list of allowed CORS origins (empty allows all)")
	flag.Parse()

	// Initialize store
	st, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		logging.Internal.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	// Show stats and exit if requested
	if *showStats {
		printStats(st)
		return
	}

	// Initialize file storage - use S3 if configured, otherwise local filesystem
	var storage files.Storage
	s3Bucket := os.Getenv("S3_BUCKET")
	if s3Bucket != "" {
		s3PublicURL := os.Getenv("S3_PUBLIC_URL")
		s3Storage, err := files.NewS3Storage(files.S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			KeyID:     os.Getenv("S3_KEY_ID"),
			AppKey:    os.Getenv("S3_APP_KEY"),
			Bucket:    s3Bucket,
			Prefix:    os.Getenv("S3_PREFIX"),
			PublicURL: s3PublicURL,
		})
		if err != nil {
			logging.Internal.Fatalf("failed to initialize S3 storage: %v", err)
		}
		storage = s3Storage
		if s3PublicURL != "" {
			logging.Internal.Printf("using S3 storage (bucket: %s, direct downloads enabled)", s3Bucket)
		} else {
			logging.Internal.Printf("using S3 storage (bucket: %s)", s3Bucket)
		}
	} else {
		fsStorage, err := files.NewFSStorage(*storagePath)
		if err != nil {
			logging.Internal.Fatalf("failed to initialize storage: %v", err)
		}
		storage = fsStorage
		logging.Internal.Printf("using local filesystem storage (%s)", *storagePath)
	}

	// Initialize services
	accountsSvc := accounts.NewService(st)
	filesSvc := files.NewService(storage, st)
	walletSvc := wallet.NewService(st)

	// Relay state: kiosk session registry and room hub. Process-local; a
	// restart drops all kiosk presence.
	hub := relay.NewHub()
	registry := relay.NewRegistry()

	// Setup HTTP handler
	handler := api.NewHandler(accountsSvc, filesSvc, walletSvc, hub, registry)

	mux := http.NewServeMux()
	mux.Handle("/api/", handler)
	mux.HandleFunc("GET /ws", relay.ServeWS(hub, registry))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "printdrop backend running")
	})

	// Configure CORS
	var corsConfig api.CORSConfig
	if *devMode || *corsOrigins == "" {
		logging.Internal.Println("CORS allowing all origins")
	} else {
		origins := strings.Split(*corsOrigins, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
		corsConfig.AllowedOrigins = origins
		logging.Internal.Printf("CORS restricted to origins: %v", origins)
	}

	// Apply middleware (order: Logger -> RateLimit -> CORS -> handler)
	var finalHandler http.Handler = mux
	finalHandler = api.CORS(corsConfig)(finalHandler)
	if !*devMode {
		finalHandler = api.RateLimit(api.DefaultRateLimitConfig())(finalHandler)
		logging.Internal.Println("rate limiting enabled")
	}
	finalHandler = api.Logger(finalHandler)

	server := &http.Server{
		Addr:    *addr,
		Handler: finalHandler,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logging.Internal.Println("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Internal.Printf("shutdown error: %v", err)
		}
	}()

	logging.Internal.Printf("starting server on %s", *addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logging.Internal.Fatalf("server error: %v", err)
	}
}
