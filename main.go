// Package main provides the entry point for the voxread CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/voxread/voxread/internal/api"
	"github.com/voxread/voxread/internal/audio"
	"github.com/voxread/voxread/internal/config"
	"github.com/voxread/voxread/internal/connectivity"
	"github.com/voxread/voxread/internal/extract"
	"github.com/voxread/voxread/internal/identity"
	"github.com/voxread/voxread/internal/library"
	"github.com/voxread/voxread/internal/prefsync"
	"github.com/voxread/voxread/internal/store"
	"github.com/voxread/voxread/tts"
	"github.com/voxread/voxread/tts/engines"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	provider   string
	voice      string
	rateFlag   float64
	pitchFlag  float64
	engineName string
	fromOffset int
	bookmarkID string
	offline    bool
	noAudio    bool

	rootCmd = &cobra.Command{
		Use:   "voxread [FILE]",
		Short: "Read documents aloud from the command line",
		Long: paragraph(
			fmt.Sprintf("\nRead documents aloud, %s. On-device speech works offline; cloud voices stream through the voxread backend when you're connected.", keyword("with any voice")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

var (
	keyword = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
	subtle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "241", Dark: "241"}).Render
)

func paragraph(s string) string {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	return lipgloss.NewStyle().Padding(0, 0, 0, 2).Render(wordwrap.String(s, width-4))
}

// app bundles the wired components behind each command.
type app struct {
	cfg       config.Config
	db        *store.Store
	lib       *library.Library
	client    *api.Client
	tokens    *identity.Memory
	monitor   connectivity.Monitor
	extract   *extract.Extractor
	engine    tts.Engine
	sink      tts.Sink
	tracker   *tts.Tracker
	session   *tts.Session
	sync      *prefsync.Queue
	logger    *log.Logger
	stopWatch func()
}

func (a *app) close() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if closer, ok := a.sink.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if probe, ok := a.monitor.(*connectivity.Probe); ok {
		probe.Close()
	}
	_ = a.db.Close()
}

// loadConfig assembles the effective configuration: file values from viper,
// environment overrides, then flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	cfg.Provider = viper.GetString("provider")
	cfg.Engine = viper.GetString("engine")
	cfg.Language = stringOr(viper.GetString("language"), cfg.Language)
	cfg.Voice = viper.GetString("voice")
	cfg.Rate = viper.GetFloat64("rate")
	cfg.Pitch = viper.GetFloat64("pitch")
	cfg.Quality = stringOr(viper.GetString("quality"), cfg.Quality)
	cfg.APIBase = stringOr(viper.GetString("api_base"), cfg.APIBase)
	cfg.AudioDir = viper.GetString("audio_dir")
	cfg.DataDir = viper.GetString("data_dir")
	cfg.DarkMode = viper.GetBool("dark_mode")

	cfg, err := config.FromEnv(cfg)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("provider") {
		cfg.Provider = provider
	}
	if cmd.Flags().Changed("voice") {
		cfg.Voice = voice
	}
	if cmd.Flags().Changed("rate") {
		cfg.Rate = rateFlag
	}
	if cmd.Flags().Changed("pitch") {
		cfg.Pitch = pitchFlag
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = engineName
	}

	if cfg.DataDir == "" {
		scope := gap.NewScope(gap.User, "voxread")
		dir, err := scope.DataPath("")
		if err != nil {
			return cfg, fmt.Errorf("locate data directory: %w", err)
		}
		cfg.DataDir = dir
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = filepath.Join(cfg.DataDir, "audio")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildApp wires the full component graph for a command invocation.
func buildApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := log.Default()

	db, err := store.Open(filepath.Join(cfg.DataDir, "store"))
	if err != nil {
		return nil, err
	}
	lib, err := library.Open(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	tokens := identity.NewMemory(cfg.Token)

	var monitor connectivity.Monitor
	if offline {
		monitor = connectivity.NewStatic(false)
	} else {
		probe := connectivity.NewProbe(cfg.APIBase+"/health", 30*time.Second, logger)
		probe.Start(context.Background())
		monitor = probe
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.APIBase,
		Tokens:  tokens,
		Logger:  logger,
	})

	engine, err := engines.New(cfg.Engine, engines.Config{})
	if err != nil {
		db.Close()
		return nil, err
	}

	var sink tts.Sink
	if noAudio {
		sink = &audio.Null{}
	} else {
		sink = audio.NewPlayer(logger)
	}

	tracker := tts.NewTracker()
	session := tts.NewSession(engine, client, sink, tracker, monitor, lib, tts.SessionConfig{
		Options:  cfg.Options(),
		AudioDir: cfg.AudioDir,
	}, logger)

	queue, err := prefsync.New(client, tokens, db, cfg.Preferences, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	queue.Bind(monitor)

	// A preference flag on this invocation counts as a preference change.
	for _, name := range []string{"provider", "voice", "rate", "pitch"} {
		if cmd.Flags().Changed(name) {
			if err := queue.Enqueue(name); err != nil {
				logger.Warn("could not queue preference change", "pref", name, "error", err)
			}
		}
	}

	var stopWatch func()
	if watched := stringOr(configFile, viper.ConfigFileUsed()); watched != "" {
		stopWatch, err = config.Watch(watched, logger, func() {
			if err := queue.Enqueue("config"); err != nil {
				logger.Warn("could not queue preference change", "error", err)
			}
		})
		if err != nil {
			logger.Debug("config watch unavailable", "error", err)
			stopWatch = nil
		}
	}

	return &app{
		cfg:       cfg,
		db:        db,
		lib:       lib,
		client:    client,
		tokens:    tokens,
		monitor:   monitor,
		extract:   extract.New(client, monitor),
		engine:    engine,
		sink:      sink,
		tracker:   tracker,
		session:   session,
		sync:      queue,
		logger:    logger,
		stopWatch: stopWatch,
	}, nil
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// loadDocument extracts the file's text and records it in the recent list.
func (a *app) loadDocument(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	content, err := a.extract.Load(ctx, abs)
	if err != nil {
		return "", err
	}

	if err := a.lib.Touch(library.Document{
		URI:      abs,
		Name:     filepath.Base(abs),
		MIMEType: library.MIMETypeFor(abs),
	}); err != nil {
		a.logger.Warn("could not record document in library", "error", err)
	}

	a.tracker.SetContent(content)
	return content, nil
}

func validateOptions(cmd *cobra.Command) error {
	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if cmd.Flags().Changed("rate") && (rateFlag < tts.MinRate || rateFlag > tts.MaxRate) {
		return fmt.Errorf("rate must be between %v and %v", tts.MinRate, tts.MaxRate)
	}
	if cmd.Flags().Changed("pitch") && (pitchFlag < tts.MinPitch || pitchFlag > tts.MaxPitch) {
		return fmt.Errorf("pitch must be between %v and %v", tts.MinPitch, tts.MaxPitch)
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return readAloud(cmd, args[0])
}

// readAloud loads the document and speaks it to completion, printing the
// highlighted span as it moves.
func readAloud(cmd *cobra.Command, path string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	content, err := a.loadDocument(ctx, path)
	if err != nil {
		return err
	}

	offset := fromOffset
	if bookmarkID != "" {
		b, err := findBookmark(a.lib, path, bookmarkID)
		if err != nil {
			return err
		}
		offset = a.lib.Resolve(b)
	}

	done := make(chan tts.SessionState, 1)
	a.session.OnStateChange(func(state tts.SessionState) {
		if state.Terminal() {
			select {
			case done <- state:
			default:
			}
		}
	})
	a.session.OnError(func(err error) {
		a.logger.Error("speech failed", "error", err)
	})

	if err := a.session.SpeakFrom(offset); err != nil {
		if errors.Is(err, tts.ErrOfflineCloudUnavailable) {
			return fmt.Errorf("%w (switch to --provider on-device or reconnect)", err)
		}
		return err
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = a.session.Stop()
			return ctx.Err()
		case state := <-done:
			if state == tts.StateFailed {
				return a.session.Err()
			}
			return nil
		case <-ticker.C:
			pos := a.tracker.Position()
			if pos.End > pos.Start && pos.End <= len(content) {
				fmt.Fprintf(os.Stderr, "\r%s %3.0f%% %s",
					subtle("reading"),
					a.tracker.Fraction()*100,
					keyword(content[pos.Start:pos.End]))
			}
		}
	}
}

func findBookmark(lib *library.Library, path, id string) (library.Bookmark, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return library.Bookmark{}, err
	}
	for _, b := range lib.Bookmarks(abs) {
		if b.ID == id {
			return b, nil
		}
	}
	return library.Bookmark{}, fmt.Errorf("no bookmark %q for %s", id, abs)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func setupLog() (func() error, error) {
	// Log to a file when requested. Otherwise discard below-error noise so
	// stderr stays usable for the reading progress line.
	if file := os.Getenv("VOXREAD_LOGFILE"); file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(log.ErrorLevel)
	return func() error { return nil }, nil
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "speech provider (on-device, amazon, google, azure)")
	rootCmd.PersistentFlags().StringVar(&voice, "voice", "", "voice identifier")
	rootCmd.PersistentFlags().Float64Var(&rateFlag, "rate", 1.0, "speaking rate")
	rootCmd.PersistentFlags().Float64Var(&pitchFlag, "pitch", 1.0, "voice pitch")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "", "on-device engine (espeak, mock)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "treat the network as unavailable")
	rootCmd.PersistentFlags().BoolVar(&noAudio, "no-audio", false, "synthesize without playing audio")
	rootCmd.Flags().IntVar(&fromOffset, "from", 0, "start reading at this character offset")
	rootCmd.Flags().StringVar(&bookmarkID, "bookmark", "", "resume from a bookmark id")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("provider", "on-device")
	viper.SetDefault("engine", "espeak")
	viper.SetDefault("rate", 1.0)
	viper.SetDefault("pitch", 1.0)

	rootCmd.AddCommand(configCmd, manCmd, exportCmd, libraryCmd, bookmarksCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voxread")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voxread")}, dirs...)
	}

	if c := os.Getenv("VOXREAD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voxread")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voxread")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "voxread.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
