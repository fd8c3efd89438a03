package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sheen-md/sheen/highlight"
	"github.com/sheen-md/sheen/markdown"
	"github.com/sheen-md/sheen/render"
	"github.com/sheen-md/sheen/ui"
	"github.com/sheen-md/sheen/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile       string
	width            uint
	mouse            bool
	pager            bool
	watch            bool
	textOnly         bool
	fallbackLanguage string

	rootCmd = &cobra.Command{
		Use:   "sheen [SOURCE]",
		Short: "View markdown in the terminal, with selectable text",
		Long: paragraph(fmt.Sprintf(
			"\nView markdown in the terminal with %s: click and drag to select, double-click for words, triple-click for lines.",
			keyword("selectable text"),
		)),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

// source provides a readable markdown source.
type source struct {
	reader io.ReadCloser
	URL    string
}

// sourceFromArg parses an argument and creates a readable source for it.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "" {
			if u.Scheme != "http" && u.Scheme != "https" {
				return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
			}
			// consumer of the source is responsible for closing the ReadCloser.
			resp, err := http.Get(u.String()) //nolint:bodyclose
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
			}
			return &source{resp.Body, u.String()}, nil
		}
	}

	// a file:
	r, err := os.Open(arg)
	u, _ := filepath.Abs(arg)
	return &source{r, u}, err
}

func validateOptions(cmd *cobra.Command) error {
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	pager = viper.GetBool("pager")
	fallbackLanguage = viper.GetString("language")

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	// Detect terminal width
	if isTerminal && width == 0 && !cmd.Flags().Changed("width") {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil {
			width = uint(w)
		}
		if width > 120 {
			width = 120
		}
	}
	if width == 0 {
		width = 80
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, err
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		src := &source{reader: os.Stdin}
		defer src.reader.Close() //nolint:errcheck
		return executeCLI(src, os.Stdout)
	}

	if len(args) == 0 {
		return errors.New("missing markdown source")
	}

	src, err := sourceFromArg(args[0])
	if err != nil {
		return err
	}

	// Interactive viewing needs a terminal on both ends; otherwise render
	// once and print.
	if !pager && term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd())) {
		defer src.reader.Close() //nolint:errcheck
		return runTUI(src)
	}

	defer src.reader.Close() //nolint:errcheck
	return executeCLI(src, os.Stdout)
}

// executeCLI renders the source once, without interaction, and prints it.
func executeCLI(src *source, w io.Writer) error {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return err
	}
	content := prepareSource(b, src.URL)

	styles := render.NoTTYStyles()
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) && termenv.ColorProfile() != termenv.Ascii {
		styles = render.AutoStyles()
	}

	var doc *markdown.Document
	if textOnly {
		doc = markdown.NewTextOnly(content)
	} else {
		doc = markdown.New(content, highlight.NewRegistry(), fallbackLanguage)
	}
	fn := doc.StartParse()
	if fn != nil {
		doc.FinishParse(fn(rootCmd.Context()))
	}
	rendered := render.Build(doc.Parsed(), styles, int(width))
	out := rendered.View(markdown.Selection{}, nil)

	if pager {
		pagerCmd := os.Getenv("PAGER")
		if pagerCmd == "" {
			pagerCmd = "less -r"
		}
		pa := strings.Split(pagerCmd, " ")
		c := exec.Command(pa[0], pa[1:]...) //nolint:gosec
		c.Stdin = strings.NewReader(out)
		c.Stdout = os.Stdout
		return c.Run()
	}

	fmt.Fprintln(w, out) //nolint:errcheck
	return nil
}

// prepareSource strips frontmatter and wraps non-markdown files in a fence so
// code files render highlighted.
func prepareSource(b []byte, path string) string {
	b = utils.RemoveFrontmatter(b)
	s := string(b)
	if path != "" && !utils.IsMarkdownFile(path) {
		s = utils.WrapCodeBlock(s, strings.TrimPrefix(filepath.Ext(path), "."))
	}
	return s
}

func runTUI(src *source) error {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return err
	}

	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	if strings.HasPrefix(src.URL, "/") {
		cfg.Path = src.URL
	}
	cfg.MaxWidth = width
	cfg.EnableMouse = mouse
	cfg.Watch = watch
	cfg.TextOnly = textOnly
	if fallbackLanguage != "" {
		cfg.FallbackLanguage = fallbackLanguage
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(ui.NewModel(cfg, prepareSource(b, cfg.Path)), opts...)

	if cfg.Watch && cfg.Path != "" {
		cancel, err := watchFile(cfg.Path, p)
		if err != nil {
			log.Warn("could not watch file", "path", cfg.Path, "err", err)
		} else {
			defer cancel()
		}
	}

	_, err = p.Run()
	return err
}

// watchFile reloads the document whenever the file changes on disk.
func watchFile(path string, p *tea.Program) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory rather than the file so editors that replace the
	// file on save keep being tracked.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close() //nolint:errcheck
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				b, err := os.ReadFile(path)
				if err != nil {
					log.Debug("could not re-read watched file", "path", path, "err", err)
					continue
				}
				p.Send(ui.FileChangedMsg{Source: prepareSource(b, path)})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("watch error", "err", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil //nolint:errcheck
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

func init() {
	rootCmd.RunE = execute
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
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width")
	rootCmd.Flags().BoolVarP(&pager, "pager", "p", false, "display with pager (non-TUI mode)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", true, "enable mouse selection (TUI-mode only)")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload when the file changes on disk")
	rootCmd.Flags().BoolVarP(&textOnly, "text", "t", false, "treat input as plain text with clickable links")
	rootCmd.Flags().StringVarP(&fallbackLanguage, "language", "l", "", "language for fenced code blocks without one")

	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("pager", rootCmd.Flags().Lookup("pager"))
	_ = viper.BindPFlag("language", rootCmd.Flags().Lookup("language"))

	viper.SetDefault("width", 0)
	viper.SetDefault("mouse", true)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "sheen")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sheen")}, dirs...)
	}

	if c := os.Getenv("SHEEN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sheen")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sheen")
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
		configFile = filepath.Join(dirs[0], "sheen.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
