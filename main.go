// bitrans: bilingual Markdown, with an AI translation inserted below every prose line.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/bitrans/cache"
	"github.com/minios-linux/bitrans/classify"
	"github.com/minios-linux/bitrans/config"
	"github.com/minios-linux/bitrans/i18n"
	"github.com/minios-linux/bitrans/langmeta"
	"github.com/minios-linux/bitrans/linebuf"
	"github.com/minios-linux/bitrans/lockfile"
	"github.com/minios-linux/bitrans/settings"
	"github.com/minios-linux/bitrans/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, blue("[INFO]")+" "+i18n.T(format)+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, green("[OK]")+" "+i18n.T(format)+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, yellow("[WARN]")+" "+i18n.T(format)+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, red("[ERROR]")+" "+i18n.T(format)+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath string
	verbose    bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bitrans",
		Short: "Bilingual Markdown translation with AI",
		Long: `bitrans — bilingual Markdown translation with AI.

Inserts the translation of every prose line directly below it, leaving code
blocks, frontmatter, links, images and other structure untouched. Works with
any OpenAI-compatible chat-completions endpoint.

Commands:
  translate   Translate Markdown files in place
  test        Check the endpoint, API key and model
  config      Show and edit settings
  auth        Manage the stored API key
  cache       Inspect or clear the translation cache
  lock        Inspect the lock file used by --skip-translated`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			i18n.Init("")
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: $XDG_CONFIG_HOME/bitrans/config.yaml)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable detailed logging")

	root.AddCommand(
		newTranslateCmd(),
		newTestCmd(),
		newConfigCmd(),
		newAuthCmd(),
		newCacheCmd(),
		newLockCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bitrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
			fmt.Printf("  messages:  %s\n", i18n.Lang())
		},
	}
}

// ---------------------------------------------------------------------------
// Settings plumbing
// ---------------------------------------------------------------------------

// settingFlags maps command-line flags to settings keys.
var settingFlags = map[string]string{
	"api-url":          "api_url",
	"model":            "model",
	"from":             "from_lang",
	"to":               "to_lang",
	"temperature":      "temperature",
	"max-tokens":       "max_tokens",
	"concurrency":      "concurrency",
	"prompt":           "system_prompt",
	"strategy":         "strategy",
	"batch-size":       "batch_size",
	"translate-tables": "translate_tables",
	"timeout":          "timeout",
	"max-retries":      "max_retries",
	"proxy":            "proxy",
}

// addSettingFlags registers one flag per setting. Defaults shown in help
// are the built-in ones; only flags given explicitly override the files.
func addSettingFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.String("api-url", d.APIURL, "Chat-completions endpoint URL")
	fs.String("model", d.Model, "Model name")
	fs.String("from", d.FromLang, "Source language code, or 'auto'")
	fs.String("to", d.ToLang, "Target language code")
	fs.Float64("temperature", d.Temperature, "Sampling temperature (0-2)")
	fs.Int("max-tokens", d.MaxTokens, "Maximum tokens per reply")
	fs.Int("concurrency", d.Concurrency, "Parallel requests (concurrent strategy)")
	fs.String("prompt", "", "System prompt template ({{toLang}} and {{fromLang}} placeholders)")
	fs.String("strategy", string(d.Strategy), "Interleaving strategy: realtime, concurrent, batch")
	fs.Int("batch-size", d.BatchSize, "Lines per request (batch strategy)")
	fs.Bool("translate-tables", d.TranslateTables, "Translate table rows (lines containing '|')")
	fs.Duration("timeout", d.Timeout, "Request timeout")
	fs.Int("max-retries", d.MaxRetries, "Retries on 429 and 5xx responses")
	fs.String("proxy", "", "HTTP/HTTPS proxy URL")
}

// applySettingFlags copies explicitly set flags into s. Only parse errors
// are reported here; the caller validates the merged settings.
func applySettingFlags(fs *pflag.FlagSet, s *config.Settings) error {
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := settingFlags[f.Name]
		if !ok {
			return
		}
		if err := s.Assign(key, f.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func userConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return settings.ConfigFilePath()
}

// loadSettings reads the user settings, the project file in dir, and the
// command-line overrides, then resolves the API key.
func loadSettings(cmd *cobra.Command, dir string) (config.Settings, error) {
	path, err := userConfigPath()
	if err != nil {
		return config.Settings{}, err
	}
	s, err := config.Load(path, dir)
	if err != nil {
		return config.Settings{}, err
	}
	if err := applySettingFlags(cmd.Flags(), &s); err != nil {
		return config.Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}

	flagKey, _ := cmd.Flags().GetString("api-key")
	key, source := settings.ResolveAPIKey(flagKey, s.APIURL, s.APIKey)
	s.APIKey = key
	if verbose && key != "" {
		logInfo("API key from %s: %s", source, settings.MaskKey(key))
	}
	return s, nil
}

func newClient(s config.Settings) *translate.Client {
	opts := translate.ClientOptionsFrom(s)
	opts.Verbose = verbose
	return translate.NewClient(opts)
}

// interruptContext cancels the returned context on Ctrl+C.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("Interrupted, saving progress...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	output         string
	abortOnError   bool
	dryRun         bool
	useCache       bool
	skipTranslated bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate FILE...",
		Short: "Insert translations below every prose line",
		Long: `Translate Markdown files in place.

Every translatable line gets its translation inserted on the next line, with
the same indentation. Code blocks, frontmatter, horizontal rules, bare URLs,
image-only lines, link reference definitions, HTML comments, table rows and
lines without letters are left alone.

Settings come from config.yaml, then .bitrans.yaml next to each file, then
the flags below.

Examples:
  # Translate a note to German
  bitrans translate --to de notes.md

  # Preview which lines would be translated
  bitrans translate --dry-run README.md

  # One request per 20 lines, reuse earlier translations
  bitrans translate --strategy batch --cache docs/*.md

  # Re-run after editing without translating the translations
  bitrans translate --skip-translated notes.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.output != "" && len(args) > 1 {
				return fmt.Errorf("--output can only be used with a single file")
			}
			return runTranslate(cmd, args, a)
		},
	}

	cmd.Flags().StringP("api-key", "k", "", "API key (or "+settings.EnvAPIKey+" env var)")
	addSettingFlags(cmd.Flags())

	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Write the result here instead of in place")
	cmd.Flags().BoolVar(&a.abortOnError, "abort-on-error", false, "Stop at the first failed line (realtime strategy)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show which lines would be translated without calling the API")
	cmd.Flags().BoolVar(&a.useCache, "cache", false, "Reuse and store translations in the local cache")
	cmd.Flags().BoolVar(&a.skipTranslated, "skip-translated", false, "Skip lines recorded in bitrans.lock as earlier translations")

	_ = cmd.RegisterFlagCompletionFunc("strategy", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"realtime\tone line at a time, inserted immediately",
			"concurrent\tchunks of parallel requests",
			"batch\tmany lines per request",
		}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("to", completeLanguages)
	_ = cmd.RegisterFlagCompletionFunc("from", completeLanguages)

	return cmd
}

func completeLanguages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, code := range langmeta.Codes() {
		out = append(out, code+"\t"+langmeta.Name(code))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func runTranslate(cmd *cobra.Command, files []string, a translateArgs) error {
	ctx, cancel := interruptContext()
	defer cancel()

	var store *cache.Cache
	stats := &translate.CacheStats{}
	if a.useCache && !a.dryRun {
		path, err := settings.CacheFilePath()
		if err != nil {
			return err
		}
		store, err = cache.Open(path)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()
	}

	failed := 0
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		s, err := loadSettings(cmd, filepath.Dir(file))
		if err != nil {
			return err
		}

		buf, err := linebuf.ReadFile(file)
		if err != nil {
			logError("%v", err)
			failed++
			continue
		}

		if a.dryRun {
			printPlan(file, buf, s)
			continue
		}

		var tr translate.Translator = newClient(s)
		if store != nil {
			tr = translate.WithCache(tr, store, stats, logWarning)
		}

		if err := translateFile(ctx, tr, file, buf, s, a); err != nil {
			if ctx.Err() != nil {
				logWarning("Translation interrupted, partial progress saved")
				return nil
			}
			logError("%s: %v", file, err)
			failed++
		}
	}

	if store != nil && (stats.Hits > 0 || stats.Misses > 0) {
		logInfo("Cache: %d hits, %d misses", stats.Hits, stats.Misses)
	}
	if failed > 0 {
		return fmt.Errorf(i18n.N("%d file failed", "%d files failed", failed), failed)
	}
	return nil
}

func translateFile(ctx context.Context, tr translate.Translator, file string, buf *linebuf.Lines, s config.Settings, a translateArgs) error {
	var lf *lockfile.LockFile
	var docKey string
	opts := translate.Options{
		AbortOnError: a.abortOnError,
		OnStart: func(runID string, strategy config.Strategy, pending int) {
			logInfo("%s: %d lines to translate to %s (%s, run %s)", file, pending, langmeta.Name(s.ToLang), strategy, runID[:8])
		},
		OnProgress: func(done, total int) {
			logInfo("  %s: %d/%d", filepath.Base(file), done, total)
		},
		OnLog:   logInfo,
		OnWarn:  logWarning,
		OnError: logError,
	}

	if a.skipTranslated {
		dir := filepath.Dir(file)
		var err error
		lf, err = lockfile.Load(dir)
		if err != nil {
			return err
		}
		docKey = lockfile.DocumentKey(dir, file)
		opts.Guard = lf.For(docKey)
	}

	out, runErr := translate.NewEngine(tr, opts).Run(ctx, buf, s)
	if errors.Is(runErr, translate.ErrNothingToTranslate) {
		if out.Skipped > 0 {
			logSuccess("%s: already translated", file)
		} else {
			logWarning("%s: nothing to translate", file)
		}
		return nil
	}

	// Insertions made before a failure are kept.
	if out.Inserted > 0 {
		dest := file
		if a.output != "" {
			dest = a.output
		}
		if err := buf.WriteFile(dest); err != nil {
			return err
		}
		if lf != nil {
			lf.Clean(docKey, buf.Lines())
			if err := lf.Save(); err != nil {
				logWarning("Saving %s: %v", lf.Path(), err)
			}
		}
	}
	if runErr != nil {
		return runErr
	}

	if out.Failed > 0 {
		logWarning("%s: %d translated, %d failed", file, out.Translated, out.Failed)
	} else {
		logSuccess("%s: %d translated", file, out.Translated)
	}
	return nil
}

// printPlan shows which lines a run would translate.
func printPlan(file string, buf *linebuf.Lines, s config.Settings) {
	plan := translate.BuildPlan(buf, classify.New(classify.WithTables(s.TranslateTables)))

	fmt.Printf("%s\n", blue(file))
	for _, g := range plan.Groups() {
		for _, pl := range g.Lines {
			if g.Translate {
				fmt.Printf("  %s %4d  %s\n", green("+"), pl.Index+1, pl.Raw)
			} else {
				fmt.Printf("  %s %4d  %s\n", faint(" "), pl.Index+1, faint(fmt.Sprintf("%-16s %s", "["+pl.Rule+"]", pl.Raw)))
			}
		}
	}
	logInfo("%s: %d lines to translate, %d skipped", file, plan.Count(classify.Translate), len(plan.Lines)-plan.Count(classify.Translate))
}

// ---------------------------------------------------------------------------
// test
// ---------------------------------------------------------------------------

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the endpoint, API key and model",
		Long:  `Send "` + translate.TestText + `" through the configured endpoint and show the reply.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, _ := os.Getwd()
			s, err := loadSettings(cmd, cwd)
			if err != nil {
				return err
			}

			ctx, cancel := interruptContext()
			defer cancel()

			logInfo("Endpoint: %s, Model: %s", s.APIURL, s.Model)
			res := newClient(s).Test(ctx, s)
			if !res.Success {
				return fmt.Errorf("connection failed: %w", res.Error())
			}
			logSuccess("Connection OK: %q", res.Text)
			return nil
		},
	}

	cmd.Flags().StringP("api-key", "k", "", "API key (or "+settings.EnvAPIKey+" env var)")
	addSettingFlags(cmd.Flags())
	return cmd
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit settings",
		Long: `Show and edit the settings in config.yaml.

Keys: ` + strings.Join(config.Keys(), ", ") + `

Examples:
  bitrans config show
  bitrans config set to_lang ja
  bitrans config set strategy batch
  bitrans config languages`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigPathCmd(),
		newConfigInitCmd(),
		newConfigLanguagesCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			cwd, _ := os.Getwd()
			s, err := config.Load(path, cwd)
			if err != nil {
				return err
			}
			if s.APIKey != "" {
				s.APIKey = settings.MaskKey(s.APIKey)
			}
			data, err := yaml.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			s, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			v, err := s.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in config.yaml",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			s, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(path, s); err != nil {
				return err
			}
			if args[0] == "api_key" {
				logWarning("The key is stored in plain text in %s; 'bitrans auth set' keeps it in a separate 0600 file", path)
			}
			logSuccess("%s = %s", args[0], args[1])
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			if project {
				path = config.ProjectFileName
			}
			if fileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			logSuccess("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&project, "project", false, "Write "+config.ProjectFileName+" in the current directory instead")
	return cmd
}

func newConfigLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List known language codes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			codes := langmeta.Codes()
			width := 0
			for _, c := range codes {
				width = max(width, len(c))
			}
			fmt.Printf("  %-*s  %s\n", width, langmeta.Auto, langmeta.SourceName(langmeta.Auto))
			for _, c := range codes {
				m := langmeta.Resolve(c)
				fmt.Printf("  %-*s  %s (%s)\n", width, c, m.Name, m.Native)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored API key",
		Long: `Manage API keys in ` + settings.FilePath() + `.

Keys are stored per endpoint host, so one file can hold keys for several
OpenAI-compatible services.

Lookup order when translating:
  1. --api-key flag
  2. ` + settings.EnvAPIKey + ` environment variable
  3. this store
  4. api_key in config.yaml

Examples:
  bitrans auth set                         Prompt for the key of the configured endpoint
  bitrans auth set --api-url https://api.groq.com/openai/v1/chat/completions
  bitrans auth remove
  bitrans auth status`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthStatusCmd(),
	)
	return cmd
}

// authURL is the endpoint a key is stored for: --api-url or the configured one.
func authURL(cmd *cobra.Command) (string, error) {
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		return u, nil
	}
	path, err := userConfigPath()
	if err != nil {
		return "", err
	}
	s, err := config.LoadFile(path)
	if err != nil {
		return "", err
	}
	return s.APIURL, nil
}

func newAuthSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [KEY]",
		Short: "Store an API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := authURL(cmd)
			if err != nil {
				return err
			}
			host := settings.HostKey(apiURL)

			key := ""
			if len(args) == 1 {
				key = strings.TrimSpace(args[0])
			} else {
				fmt.Fprintf(os.Stderr, "\n%s\n", blue(host+" — API Key Setup"))
				fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
				existing := settings.GetAPIKey(apiURL)
				if existing != "" {
					fmt.Fprintf(os.Stderr, "  Current key: %s\n", yellow(settings.MaskKey(existing)))
					fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
				} else {
					fmt.Fprintf(os.Stderr, "  Enter API key: ")
				}
				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() {
					return fmt.Errorf("no input received")
				}
				key = strings.TrimSpace(scanner.Text())
				if key == "" && existing != "" {
					logInfo("Keeping existing key")
					return nil
				}
			}
			if key == "" {
				return fmt.Errorf("no API key provided")
			}

			if err := settings.SetAPIKey(apiURL, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			logSuccess("API key for %s saved", host)
			return nil
		},
	}
	cmd.Flags().String("api-url", "", "Endpoint the key belongs to (default: configured api_url)")
	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm", "logout"},
		Short:   "Remove the stored API key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := authURL(cmd)
			if err != nil {
				return err
			}
			if settings.GetAPIKey(apiURL) == "" {
				logInfo("No key stored for %s", settings.HostKey(apiURL))
				return nil
			}
			if err := settings.Remove(apiURL); err != nil {
				return err
			}
			logSuccess("API key for %s removed", settings.HostKey(apiURL))
			return nil
		},
	}
	cmd.Flags().String("api-url", "", "Endpoint the key belongs to (default: configured api_url)")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   "Show stored keys",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%s\n", blue("Stored Credentials"))
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

			store := settings.Load()
			if len(store) == 0 {
				fmt.Fprintf(os.Stderr, "  %s\n", red("none"))
			}
			for _, host := range sortedHosts(store) {
				info := store[host]
				fmt.Fprintf(os.Stderr, "  %-28s %s (key: %s)\n", host, green("configured"), settings.MaskKey(info.Key))
			}

			fmt.Fprintf(os.Stderr, "\n  %s\n", yellow("Environment Variables"))
			if env := os.Getenv(settings.EnvAPIKey); env != "" {
				fmt.Fprintf(os.Stderr, "  %s: %s (overrides stored keys)\n", settings.EnvAPIKey, green(settings.MaskKey(env)))
			} else {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", settings.EnvAPIKey, red("not set"))
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

// ---------------------------------------------------------------------------
// cache
// ---------------------------------------------------------------------------

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show cache location and size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, path, err := openCache()
				if err != nil {
					return err
				}
				defer store.Close()
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", path)
				fmt.Printf("  "+i18n.N("%d translation", "%d translations", n)+"\n", n)
				return nil
			},
		},
		newCacheClearCmd(),
	)
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			var cutoff time.Time
			if olderThan > 0 {
				cutoff = time.Now().Add(-olderThan)
			}
			n, err := store.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			logSuccess("Removed %d cached translations", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove entries older than this (e.g. 720h)")
	return cmd
}

func openCache() (*cache.Cache, string, error) {
	path, err := settings.CacheFilePath()
	if err != nil {
		return nil, "", err
	}
	store, err := cache.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	return store, path, nil
}

// ---------------------------------------------------------------------------
// lock
// ---------------------------------------------------------------------------

func newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect the lock file used by --skip-translated",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show [DIR]",
			Short: "Summarize " + lockfile.LockFileName,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				lf, err := lockfile.Load(dir)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", lf.Path(), lf.Summary())
				return nil
			},
		},
		&cobra.Command{
			Use:   "forget FILE...",
			Short: "Drop the recorded translations of files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, file := range args {
					dir := filepath.Dir(file)
					lf, err := lockfile.Load(dir)
					if err != nil {
						return err
					}
					lf.RemoveDocument(lockfile.DocumentKey(dir, file))
					if err := lf.Save(); err != nil {
						return err
					}
					logSuccess("%s forgotten", file)
				}
				return nil
			},
		},
	)
	return cmd
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sortedHosts(store settings.Store) []string {
	hosts := make([]string, 0, len(store))
	for h, info := range store {
		if info != nil && info.IsAPI() && info.Key != "" {
			hosts = append(hosts, h)
		}
	}
	sort.Strings(hosts)
	return hosts
}
