package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vueblade/internal/app"
	"vueblade/pkg/logger"
)

// HandleServe runs the preview server until SIGINT/SIGTERM. SIGHUP clears
// the view cache and rebuilds the router.
func HandleServe(args []string) {
	cfg := app.LoadConfig()
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--port":
			if i+1 < len(args) {
				i++
				cfg.Port = args[i]
				if !strings.Contains(cfg.Port, ":") {
					cfg.Port = ":" + cfg.Port
				}
			}
		case "--views":
			if i+1 < len(args) {
				i++
				cfg.ViewsDir = args[i]
			}
		}
	}

	logger.Setup(cfg.Env)
	slog.Info("Starting vueblade preview server...", "env", cfg.Env, "views", cfg.ViewsDir)

	appCtx := app.NewAppContext(cfg)
	if err := appCtx.Reload(); err != nil {
		slog.Error("❌ Critical Startup Error", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Routes Registered Successfully")

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           appCtx.Hot,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Listen first so a busy port is reported cleanly.
	ln, err := net.Listen("tcp", cfg.Port)
	if err != nil {
		fmt.Println("\n" + strings.Repeat("=", 60))
		fmt.Println("❌ FAILED TO START SERVER")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Error: %v\n", err)
		fmt.Println("\nChange APP_PORT in the .env file or pass --port to use a different port.")
		fmt.Println(strings.Repeat("=", 60) + "\n")
		os.Exit(1)
	}

	go func() {
		slog.Info("🚀 Preview Ready", "port", cfg.Port)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("❌ Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range signals {
		if sig != syscall.SIGHUP {
			break
		}
		if err := appCtx.Reload(); err != nil {
			slog.Error("❌ Reload failed", "error", err)
			continue
		}
		slog.Info("🔄 Views Reloaded")
	}

	slog.Info("⚠️  Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("❌ Server Forced Shutdown", "error", err)
	} else {
		slog.Info("✅ Server Gracefully Stopped")
	}
}
