// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/relaytune/internal/api/status"
	"github.com/osa030/relaytune/internal/app/driver"
	"github.com/osa030/relaytune/internal/app/failover"
	"github.com/osa030/relaytune/internal/app/filter"
	"github.com/osa030/relaytune/internal/app/osmedia"
	"github.com/osa030/relaytune/internal/app/playback"
	"github.com/osa030/relaytune/internal/app/presentation"
	"github.com/osa030/relaytune/internal/app/resolver"
	"github.com/osa030/relaytune/internal/infra/config"
	"github.com/osa030/relaytune/internal/infra/invidious"
	"github.com/osa030/relaytune/internal/infra/logger"
	"github.com/osa030/relaytune/internal/infra/mailbox"
	"github.com/osa030/relaytune/internal/infra/metrics"
	"github.com/osa030/relaytune/internal/infra/mirrors"
	"github.com/osa030/relaytune/internal/infra/mpv"
	"github.com/osa030/relaytune/internal/infra/piped"
	"github.com/osa030/relaytune/internal/ui"
)

const checkConcurrency = 8

var (
	app        = kingpin.New("relaytune", "Terminal audio player with endless related-track radio")
	configPath = app.Flag("config", "Path to config file").Default("relaytune.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file").String()
	headless   = app.Flag("headless", "Run without the terminal UI").Bool()

	// play command (default)
	playCmd = app.Command("play", "Play a video or playlist (default)").Default()
	playURL = playCmd.Arg("url", "Video URL, playlist URL or bare video ID").Required().String()

	mirrorsCmd     = app.Command("mirrors", "Fetch and rank backend mirrors, then exit")
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// The log destination depends on the UI mode, so config comes first.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	headlessMode := *headless || cfg.IsHeadless() || command == mirrorsCmd.FullCommand()

	loggerConfig := logger.Config{
		Output:    logger.OutputFor(headlessMode),
		Level:     "info",
		File:      cfg.Log.File,
		SessionID: logger.NewSessionID(),
	}
	if *verbose || cfg.Log.Debug {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	zlog.Info().Msgf("Loaded config from %s", *configPath)

	if command == mirrorsCmd.FullCommand() {
		err = runMirrors(cfg)
	} else {
		err = run(cfg, *playURL, headlessMode)
	}
	if err != nil {
		zlog.Error().Msgf("relaytune error: %v", err)
		if !headlessMode {
			fmt.Fprintf(os.Stderr, "relaytune: %v\n", err)
		}
		os.Exit(1)
	}
}

// run wires the player together and blocks until playback stops.
func run(cfg *config.Config, input string, headlessMode bool) error {
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	res, err := newResolver(cfg, m)
	if err != nil {
		return errors.Wrap(err, "failed to create resolver")
	}

	player, err := mpv.New(mpv.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create audio driver")
	}

	driverBox := mailbox.New[driver.Command]()
	uiBox := mailbox.New[presentation.Command]()
	mediaBox := mailbox.New[osmedia.Command]()
	signals := mailbox.New[playback.Signal]()
	defer signals.Close()

	media := osmedia.NewService(func(intent osmedia.Intent) {
		if sig, ok := playback.FromIntent(intent); ok {
			signals.Send(sig)
		}
	})

	orchestrator := playback.New(playback.Config{
		BaseVolume:              cfg.Playback.BaseVolume,
		ShufflePlaylist:         cfg.Playback.ShufflePlaylist,
		PlayOnlyRecommendations: cfg.Playback.PlayOnlyRecommendations,
		MaxRepairAttempts:       cfg.Playback.MaxRepairAttempts,
		Metrics:                 m,
	}, res, signals.C(), playback.Outputs{
		Driver:       driverBox,
		Presentation: uiBox,
		OSMedia:      mediaBox,
	})

	g, gctx := errgroup.WithContext(ctx)
	statusCtx, stopStatus := context.WithCancel(gctx)
	defer stopStatus()

	// The orchestrator's last commands (Shutdown, Quit) stay queued when its
	// outboxes close. Each consumer stops on its own once it reads them, so
	// the orchestrator's result must not cancel the group.
	var runErr error
	g.Go(func() error {
		defer stopStatus()
		defer driverBox.Close()
		defer uiBox.Close()
		defer mediaBox.Close()
		runErr = orchestrator.Run(gctx, input)
		return nil
	})
	g.Go(func() error {
		return player.Run(gctx, driverBox.C())
	})
	g.Go(func() error {
		return playback.BridgeDriver(gctx, player.Notifications(), signals)
	})
	g.Go(func() error {
		return media.Run(gctx, mediaBox.C())
	})
	if headlessMode {
		g.Go(func() error {
			return ui.NewHeadless().Run(gctx, uiBox.C())
		})
	} else {
		model := ui.NewModel(uiBox.C(), signals)
		g.Go(func() error {
			return ui.Run(gctx, model)
		})
	}
	if cfg.Status.Addr != "" {
		srv := status.NewServer(cfg.Status.Addr, media, res, m.Handler())
		g.Go(func() error {
			return srv.Run(statusCtx)
		})
	}

	err = g.Wait()
	if err == nil {
		err = runErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	zlog.Info().Msg("relaytune stopped")
	return nil
}

func newResolver(cfg *config.Config, m *metrics.Metrics) (*resolver.Resolver, error) {
	pipedClient, invidiousClient, err := newClients(cfg, m)
	if err != nil {
		return nil, err
	}

	streamDomains, err := failover.New(piped.Family, cfg.Backends.Stream.Domains, cfg.Backends.Stream.Index)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create stream domains")
	}
	metadataDomains, err := failover.New(invidious.Family, cfg.Backends.Metadata.Domains, cfg.Backends.Metadata.Index)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metadata domains")
	}

	rc := resolver.Config{
		Streams:           pipedClient,
		Metadata:          invidiousClient,
		StreamDomains:     streamDomains,
		MetadataDomains:   metadataDomains,
		StreamDirectory:   pipedClient,
		MetadataDirectory: invidiousClient,
		StreamCheckPath:   mirrors.PipedCheckPath,
		MetadataCheckPath: mirrors.InvidiousCheckPath,
		FilterSettings:    cfg.FilterSettings(),
		Metrics:           m,
	}
	if cfg.Backends.RankOnRefresh {
		rc.Ranker = mirrors.NewRanker(cfg.RequestTimeout(), checkConcurrency)
	}
	return resolver.New(rc)
}

func newClients(cfg *config.Config, m *metrics.Metrics) (*piped.Client, *invidious.Client, error) {
	pipedClient := piped.New(piped.Config{
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.Backends.RequestsPerSecond,
		DirectoryURL:      cfg.Backends.Stream.DirectoryURL,
		Metrics:           m,
	})
	invidiousClient, err := invidious.New(invidious.Config{
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.Backends.RequestsPerSecond,
		DirectoryURL:      cfg.Backends.Metadata.DirectoryURL,
		CacheSize:         cfg.Backends.GenreCacheSize,
		Metrics:           m,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create metadata client")
	}
	return pipedClient, invidiousClient, nil
}

// runMirrors prints both mirror directories ordered by latency.
func runMirrors(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipedClient, invidiousClient, err := newClients(cfg, metrics.New())
	if err != nil {
		return err
	}
	ranker := mirrors.NewRanker(cfg.RequestTimeout(), checkConcurrency)

	families := []struct {
		name      string
		directory resolver.Directory
		checkPath string
	}{
		{piped.Family, pipedClient, mirrors.PipedCheckPath},
		{invidious.Family, invidiousClient, mirrors.InvidiousCheckPath},
	}
	for _, fam := range families {
		domains, err := fam.directory.Instances(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to list %s mirrors", fam.name)
		}
		results := ranker.Measure(ctx, domains, fam.checkPath)
		sort.SliceStable(results, func(i, j int) bool {
			if (results[i].Err == nil) != (results[j].Err == nil) {
				return results[i].Err == nil
			}
			return results[i].Latency < results[j].Latency
		})

		fmt.Printf("%s mirrors (%d):\n", fam.name, len(results))
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("  %-45s unreachable (%v)\n", r.Domain, r.Err)
				continue
			}
			fmt.Printf("  %-45s %v\n", r.Domain, r.Latency.Round(1e6))
		}
	}
	return nil
}

// printFilters prints available filters.
func printFilters() {
	registry := filter.GetRegistered()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validateFilterConfig rejects settings for filters that do not exist.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()
	for name := range cfg.Filters {
		if _, ok := registry[name]; !ok {
			return errors.Newf("unknown filter: %s", name)
		}
	}
	return nil
}
