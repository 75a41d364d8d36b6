package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/engine"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/ledger"
	"github.com/qdl-tool/qdl/internal/media"
	"github.com/qdl-tool/qdl/internal/naming"
	"github.com/qdl-tool/qdl/internal/output"
)

func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// pipeline bundles everything a download-shaped command needs. Close
// releases the ledger handle.
type pipeline struct {
	Client     *catalog.Client
	Downloader *engine.Downloader
	Ledger     ledger.Ledger
	Names      *naming.Store
	BaseDir    string
}

func (p *pipeline) Close() {
	if p.Ledger != nil {
		_ = p.Ledger.Close()
	}
}

func buildPipeline(app *AppContext, cfg config.Config) (*pipeline, error) {
	log := diagnosticLogger(app)

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		AppID:             cfg.API.AppID,
		UserToken:         cfg.API.UserToken,
		UserAgent:         userAgent(app.Build),
		Timeout:           time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	baseDir, err := config.ExpandPath(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("resolve download directory: %w", err)
	}

	var led ledger.Ledger = ledger.Disabled{}
	if !cfg.NoDatabase {
		ledgerPath, pathErr := config.ExpandPath(cfg.LedgerPath)
		if pathErr != nil {
			return nil, fmt.Errorf("resolve ledger path: %w", pathErr)
		}
		if mkErr := os.MkdirAll(filepath.Dir(ledgerPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create ledger directory: %w", mkErr)
		}
		store, openErr := ledger.Open(ledgerPath)
		if openErr != nil {
			return nil, openErr
		}
		led = store
	}

	names, err := loadNamingStore(cfg)
	if err != nil {
		led.Close()
		return nil, err
	}

	progress := io.Writer(io.Discard)
	if !app.Opts.Quiet && !app.Opts.JSON && isTTY(os.Stderr) {
		progress = app.IO.ErrOut
	}

	writer := &media.Writer{
		Source:   client,
		Names:    names,
		Progress: progress,
		NoCover:  cfg.NoCover,
		OGCover:  cfg.OGCover,
		Log:      log,
	}
	fetcher := &fetch.Fetcher{Writer: writer, Fallback: cfg.QualityFallback}

	downloader := engine.NewDownloader(client, fetcher, led, names, buildEmitter(app))

	return &pipeline{
		Client:     client,
		Downloader: downloader,
		Ledger:     led,
		Names:      names,
		BaseDir:    baseDir,
	}, nil
}

func loadNamingStore(cfg config.Config) (*naming.Store, error) {
	path, err := config.ExpandPath(cfg.NamingRules)
	if err != nil {
		return nil, fmt.Errorf("resolve naming rules path: %w", err)
	}
	return naming.Load(path)
}

func buildEmitter(app *AppContext) output.EventEmitter {
	if app.Opts.JSON {
		return output.NewJSONEmitter(app.IO.Out)
	}
	noColor := app.Opts.NoColor || !isTTY(os.Stdout)
	return output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, app.Opts.Quiet, app.Opts.Verbose, noColor)
}

func diagnosticLogger(app *AppContext) zerolog.Logger {
	if !app.Opts.Verbose {
		return zerolog.Nop()
	}
	writer := zerolog.ConsoleWriter{Out: app.IO.ErrOut, TimeFormat: time.TimeOnly, NoColor: app.Opts.NoColor}
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

func userAgent(build BuildInfo) string {
	version := build.Version
	if version == "" {
		version = "dev"
	}
	return "qdl/" + version
}

func isTTY(file *os.File) bool {
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func promptYesNo(app *AppContext, prompt string) (bool, error) {
	fmt.Fprintf(app.IO.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(app.IO.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
