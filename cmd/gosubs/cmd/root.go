package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ofir123/go-subs/internal/cache"
	"github.com/ofir123/go-subs/internal/logging"
	"github.com/ofir123/go-subs/internal/pathresolve"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/providers"
	"github.com/ofir123/go-subs/pkg/core/providers/opensubtitles"
	"github.com/ofir123/go-subs/pkg/core/routing"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
	"github.com/ofir123/go-subs/pkg/core/writer"
	"github.com/ofir123/go-subs/pkg/processor"
)

// Configuration keys.
const (
	CfgKeyLanguages   = "languages"
	CfgKeyPreferences = "preferences"
	CfgKeyFlatRoot    = "downloads.flatroot"
	CfgKeyOSAPIKey    = "opensubtitles.apikey"
	CfgKeyOSUsername  = "opensubtitles.username"
	CfgKeyOSPassword  = "opensubtitles.password"
	CfgKeyCacheDir    = "cache.dir"
)

// logFileName is created next to the target unless -a overrides it.
const logFileName = "subs.log"

var (
	// Used for flags.
	cfgFile       string
	flagPath      string
	flagTorrent   []string
	flagMenu      bool
	flagLanguages []string
	flagProviders []string
	flagQuiet     bool
	flagLogFile   string
	flagBackwards bool

	// RootCmd represents the base command when called without any
	// subcommands. Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:   "gosubs",
		Short: "Find and download subtitles for your video files.",
		Long: `gosubs scans a video file or directory, searches the configured
subtitle providers for each requested language, and saves the best match
next to each video (e.g. movie.mkv -> movie.heb.srt).

Examples:
  gosubs -p /movies/My.Movie.2023.1080p.mkv
  gosubs -p /movies -l heb -l eng
  gosubs -u "D:\Downloads" -u "My.Movie.2023.1080p" -q
  gosubs -m`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gosubs/config.yaml)")

	RootCmd.Flags().StringVarP(&flagPath, "path", "p", "", "Video file or directory to find subtitles for")
	RootCmd.Flags().StringArrayVarP(&flagTorrent, "utorrent", "u", nil,
		"Torrent completion mode: pass twice, first the downloads directory then the torrent name (uTorrent's %D %N)")
	RootCmd.Flags().BoolVarP(&flagMenu, "providers-menu", "m", false, "Print the available subtitle providers and exit")
	RootCmd.Flags().StringSliceVarP(&flagLanguages, "language", "l", nil, "Languages to search for (ISO codes, repeatable)")
	RootCmd.Flags().StringSliceVarP(&flagProviders, "provider", "r", nil, "Restrict the search to these providers (repeatable)")
	RootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all console output")
	RootCmd.Flags().StringVarP(&flagLogFile, "log", "a", "", "Log file location (default: "+logFileName+" beside the target)")
	RootCmd.Flags().BoolVarP(&flagBackwards, "backwards", "b", false, "Reverse right-to-left text in saved subtitles")

	RootCmd.MarkFlagsOneRequired("path", "utorrent", "providers-menu")
	RootCmd.MarkFlagsMutuallyExclusive("path", "utorrent", "providers-menu")
	RootCmd.MarkFlagsMutuallyExclusive("quiet", "log")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".gosubs"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GOSUBS")
	viper.AutomaticEnv() // read in environment variables that match

	viper.SetDefault(CfgKeyLanguages, []string{"heb", "eng"})
	viper.SetDefault(CfgKeyPreferences, map[string][]string{"heb": {"wizdom"}})
	viper.SetDefault(CfgKeyFlatRoot, `D:\Downloads`)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.New(flagQuiet)

	registry := providers.NewRegistry(providers.Config{
		OpenSubtitles: opensubtitles.Config{
			APIKey:   viper.GetString(CfgKeyOSAPIKey),
			Username: viper.GetString(CfgKeyOSUsername),
			Password: viper.GetString(CfgKeyOSPassword),
		},
	}, logger)

	if flagMenu {
		cmd.Println("Available subtitle providers:")
		for _, name := range registry.Names() {
			cmd.Printf("  %s\n", name)
		}
		return nil
	}

	if err := registry.Validate(flagProviders); err != nil {
		return err
	}

	target, err := resolveTarget()
	if err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("can't access %q: %w", target, err)
	}

	if !flagQuiet {
		logPath := flagLogFile
		if logPath == "" {
			logDir := target
			if !info.IsDir() {
				logDir = filepath.Dir(target)
			}
			logPath = filepath.Join(logDir, logFileName)
		}
		logging.AddFileSink(logger, logPath)
	}

	langs, err := requestedLanguages()
	if err != nil {
		return err
	}
	prefs, err := providerPreferences()
	if err != nil {
		return err
	}

	searchCache := openCache(logger)
	if searchCache != nil {
		defer searchCache.Close()
	}

	searcher := subtitles.NewSearcher(registry, searchCache, logger)
	p := processor.New(searcher, writer.New(logger), processor.Options{
		Preferences: prefs,
		Providers:   flagProviders,
		Backwards:   flagBackwards,
	}, logger)

	results, err := p.FindSubtitles(cmd.Context(), target, langs, info.IsDir())
	if err != nil {
		return err
	}
	logger.Infof("All done! Created %d subtitle files", len(results))
	return nil
}

// resolveTarget turns the path or utorrent flags into an absolute path.
func resolveTarget() (string, error) {
	if len(flagTorrent) > 0 {
		if len(flagTorrent) != 2 {
			return "", fmt.Errorf("--utorrent needs exactly 2 values (downloads directory and torrent name), got %d", len(flagTorrent))
		}
		return pathresolve.ResolveTorrent(flagTorrent[0], flagTorrent[1], viper.GetString(CfgKeyFlatRoot)), nil
	}
	return pathresolve.Resolve(flagPath)
}

// requestedLanguages parses the -l flag, falling back to the configured
// default list.
func requestedLanguages() ([]language.Language, error) {
	codes := flagLanguages
	if len(codes) == 0 {
		codes = viper.GetStringSlice(CfgKeyLanguages)
	}
	langs, err := language.ParseList(codes)
	if err != nil {
		return nil, fmt.Errorf("invalid language list: %w", err)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages to search for; pass -l or configure %q", CfgKeyLanguages)
	}
	return langs, nil
}

// providerPreferences loads the per-language provider routing from config.
func providerPreferences() (routing.Preferences, error) {
	raw := viper.GetStringMapStringSlice(CfgKeyPreferences)
	prefs := make(routing.Preferences, len(raw))
	for code, providerNames := range raw {
		lang, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q in preferences: %w", code, err)
		}
		prefs[lang] = providerNames
	}
	return prefs, nil
}

// openCache opens the search cache; a broken cache only costs speed, so
// failures degrade to running without one.
func openCache(logger *logrus.Logger) *cache.Cache {
	dir := viper.GetString(CfgKeyCacheDir)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			logger.Warnf("No cache directory available, searching without cache: %v", err)
			return nil
		}
		dir = filepath.Join(base, "gosubs")
	}
	c, err := cache.Open(dir, cache.DefaultTTL, logger)
	if err != nil {
		logger.Warnf("Failed to open search cache at %s, searching without cache: %v", dir, err)
		return nil
	}
	return c
}
