package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gitanshu/qrgen/api"
	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/clipboard"
	"github.com/gitanshu/qrgen/config"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/notify"
	"github.com/gitanshu/qrgen/qr"
	"github.com/gitanshu/qrgen/save"
	"github.com/gitanshu/qrgen/store"
	"github.com/gitanshu/qrgen/tui"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "qrgen",
		Short: "Generate QR codes with titled, watermarked PNG/JPG exports",
	}

	// --- serve command -------------------------------------------------------
	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser UI and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(serveCmd)

	// --- tui command ---------------------------------------------------------
	var tuiConfigPath string
	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(tuiConfigPath)
		},
	}
	tuiCmd.Flags().StringVarP(&tuiConfigPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(tuiCmd)

	// --- generate command ----------------------------------------------------
	var (
		genConfigPath string
		genTitle      string
		genFormat     string
		genOut        string
	)
	generateCmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate a QR code and export it to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(genConfigPath, args[0], genTitle, genFormat, genOut)
		},
	}
	generateCmd.Flags().StringVarP(&genConfigPath, "config", "c", "config.yaml", "Path to config file")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "Title drawn above the code")
	generateCmd.Flags().StringVar(&genFormat, "format", "png", "Export format (png or jpg)")
	generateCmd.Flags().StringVar(&genOut, "out", "", "Output directory (defaults to output_dir from config)")
	root.AddCommand(generateCmd)

	// --- status command ------------------------------------------------------
	var statusAddr string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(statusAddr)
		},
	}
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8556", "Service HTTP address")
	root.AddCommand(statusCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrgen %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// components are the collaborators shared by every front end.
type components struct {
	ctl      *app.Controller
	disk     *save.DirSaver
	ledger   *store.ExportLog
	notifier *notify.Retrying
	level    qr.Level
}

func (c *components) Close() {
	c.ctl.Close()
	c.notifier.Close()
	c.ledger.Close()
}

// loadConfig reads the config and prepares the data directories.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ensure dirs: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
	return log
}

// build wires the controller to the encoder, composer, disk saver, ledger,
// clipboard and webhook described by cfg. clip may be nil.
func build(cfg *config.Config, log *slog.Logger, clip clipboard.Clipboard) (*components, error) {
	level, err := qr.ParseLevel(cfg.Encode.ErrorCorrection)
	if err != nil {
		return nil, err
	}

	ledger, err := store.NewExportLog(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open export ledger: %w", err)
	}
	disk := save.NewDirSaver(cfg.OutputDir, ledger, log)
	notifier := notify.NewRetrying(notify.NewWebhookSender(cfg.WebhookURL, log), cfg.WebhookRetries+1, time.Second, log)

	ctl := app.New(app.Config{
		Encoder:   qr.NewEncoder(),
		Composer:  export.NewComposer(layoutFromConfig(cfg.Export), log),
		Saver:     disk,
		Clipboard: clip,
		Notifier:  notifier,
		EncodeOptions: qr.Options{
			Width:  cfg.Encode.Width,
			Margin: cfg.Encode.Margin,
			Dark:   cfg.Encode.Dark,
			Light:  cfg.Encode.Light,
			Level:  level,
		},
		HistorySize:    cfg.HistorySize,
		NotifyDuration: cfg.NotifyDuration.Duration,
		Log:            log,
	})
	return &components{ctl: ctl, disk: disk, ledger: ledger, notifier: notifier, level: level}, nil
}

func layoutFromConfig(c config.ExportConfig) export.Layout {
	l := export.DefaultLayout()
	l.QRSize = c.QRSize
	l.Padding = c.Padding
	l.TitleHeight = c.TitleHeight
	l.TitlePlaceholderHeight = c.TitlePlaceholderHeight
	l.WatermarkHeight = c.WatermarkHeight
	l.Watermark = c.Watermark
	l.Background = c.Background
	l.Foreground = c.Foreground
	l.WatermarkColor = c.WatermarkColor
	l.TitleFontSize = float64(c.TitleFontSize)
	l.WatermarkFontSize = float64(c.WatermarkFontSize)
	l.JPEGQuality = c.JPEGQuality
	return l
}

// runServe is the main service entrypoint.
func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, os.Stdout)
	log.Info("starting qrgen", "version", version, "port", cfg.Port, "data_dir", cfg.DataDir, "output_dir", cfg.OutputDir)

	c, err := build(cfg, log, clipboard.NewOSC52(os.Stderr))
	if err != nil {
		return err
	}
	defer c.Close()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Controller: c.ctl,
			Disk:       c.disk,
			Ledger:     c.ledger,
			Log:        log,
			Version:    version,
			StartTime:  time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "url", fmt.Sprintf("http://localhost:%d/", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("HTTP server: %w", err)
	}

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// runTUI runs the terminal front end. Logs go to a file so they do not
// tear the screen.
func runTUI(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := newLogger(cfg.LogLevel, logFile)

	c, err := build(cfg, log, clipboard.NewOSC52(os.Stderr))
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	p := tea.NewProgram(tui.New(ctx, c.ctl, c.level), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// runGenerate encodes text once and writes the composite to disk.
func runGenerate(configPath, text, title, formatName, outDir string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("ensure dirs: %w", err)
	}
	log := newLogger(cfg.LogLevel, os.Stderr)

	c, err := build(cfg, log, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	c.ctl.SetForm(text, title)
	if _, err := c.ctl.Generate(ctx); err != nil {
		return err
	}

	var rec store.ExportRecord
	toDisk := save.Func(func(ctx context.Context, blob export.Blob) error {
		var err error
		rec, err = c.disk.Write(ctx, blob)
		return err
	})
	if _, err := c.ctl.ExportTo(ctx, format, toDisk); err != nil {
		return err
	}
	fmt.Println(rec.Path)
	return nil
}

// runStatus queries the service HTTP status endpoint.
func runStatus(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/status")
	if err != nil {
		return fmt.Errorf("failed to reach qrgen at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
