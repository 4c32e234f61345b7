package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
	"github.com/tartampluch/go-idlookup/internal/metrics"
	"github.com/tartampluch/go-idlookup/internal/search"
	"github.com/tartampluch/go-idlookup/internal/server"
	"github.com/tartampluch/go-idlookup/internal/tui"
	"github.com/tartampluch/go-idlookup/internal/ui"
	"github.com/zalando/go-keyring"
)

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
// os.Exit() does not run defers, so we must return an integer code first.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	terminal := flag.Bool(config.FlagTUI, false, config.FlagDescTUI)
	configPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// The terminal front-end owns stdout, so its logs go to the file only.
	logCloser := setupLogging(*debugMode, !*terminal)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// Create a root context that cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// Shared by both front-ends: counters and the feed server.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	rec := metrics.New(reg)

	var err error
	if *terminal {
		err = runTerminal(ctx, *configPath, reg, rec)
	} else {
		err = runDesktop(ctx, reg, rec)
	}
	if err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// newService adapts the HTTP client constructor to the factory signature.
func newService(baseURL, apiKey string) (engine.LookupService, error) {
	return engine.NewHTTPLookupClient(baseURL, apiKey)
}

// runDesktop initializes the Fyne application, wires dependencies, and starts the UI loop.
func runDesktop(ctx context.Context, reg *prometheus.Registry, rec *metrics.Recorder) error {
	a := app.NewWithID(config.AppID)

	// Record the version for potential migration logic in future updates.
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	port := a.Preferences().StringWithFallback(config.PrefServerPort, config.DefaultPort)
	srv := server.NewFeedServer(port, reg, rec)

	gui := ui.NewIDLookupApp(a, ctx, srv, newService, rec)

	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the main window closes.
	gui.Run()

	return nil
}

// runTerminal starts the bubbletea front-end configured from the TOML settings file.
func runTerminal(ctx context.Context, path string, reg *prometheus.Registry, rec *metrics.Recorder) error {
	if path == "" {
		p, err := defaultSettingsPath()
		if err != nil {
			return err
		}
		path = p
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}

	apiKey := ""
	if settings.APIUser != "" {
		if key, err := keyring.Get(config.KeyringService, settings.APIUser); err == nil {
			apiKey = key
		} else {
			slog.Warn(config.MsgKeyFail,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyUser, settings.APIUser,
				config.LogKeyError, err)
		}
	}

	svc, err := newService(settings.ServiceURL, apiKey)
	if err != nil {
		return err
	}

	bundle, _ := ui.LoadBundle()
	tr := ui.NewTranslator(i18n.NewLocalizer(bundle, settings.Language))

	srv := server.NewFeedServer(settings.Port, reg, rec)
	pub := server.NewPublisher(srv)

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	go func() {
		if err := srv.Start(srvCtx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyPort, settings.Port,
				config.LogKeyError, err)
		}
	}()

	m := tui.New(ctx, svc, tr, search.WithMetrics(rec))
	m.Observe(pub.Sync)
	pub.Sync(m.Component())

	return tui.Run(ctx, m)
}

// defaultSettingsPath is <user config dir>/<app id>/config.toml.
func defaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrConfigDir, err)
	}
	return filepath.Join(dir, config.AppID, config.SettingsFileName), nil
}

// printVersion outputs the build information to stdout and exits.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger.
func setupLogging(debugMode, toStdout bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	if toStdout {
		writers = append(writers, os.Stdout)
	}

	// Attempt to set up a file writer in the user's cache directory.
	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
