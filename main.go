package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Discovery
	rootDir string
	repoURL string

	// list
	listExtension string
	listLimit     int
	listTree      bool
	listClipboard bool
	listPDF       string

	// copy
	copyExtension   string
	copyReconstruct bool
	copyInteractive bool

	cfgFile string
)

// version is the application version, set via ldflags.
var version string = "dev"

var rootCmd = &cobra.Command{
	Use:   "dscraper",
	Short: "dscraper finds files by extension and copies them into one place.",
	Long: `dscraper searches a directory tree for files with a given extension and
copies them into its output directory, either flat (colliding names get a short
random suffix) or with their original directory structure reconstructed.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List files found",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy files found to the output directory",
	Args:  cobra.NoArgs,
	RunE:  runCopy,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the searches and reconstructions directories",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/dscraper/config.toml)")
	rootCmd.PersistentFlags().String("output-root", "", "Directory holding searches, reconstructions and logs")
	viper.BindPFlag("output_root", rootCmd.PersistentFlags().Lookup("output-root"))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Discovery, shared by list and copy
	for _, cmd := range []*cobra.Command{listCmd, copyCmd} {
		cmd.Flags().StringVar(&rootDir, "root", "", "Directory to search (default is the current directory)")
		cmd.Flags().StringVar(&repoURL, "repo", "", "Clone this git repository and search it instead of --root")
		cmd.Flags().Bool("gitignore", false, "Skip files ignored by the root .gitignore")
		cmd.Flags().Bool("skip-hidden", false, "Skip hidden files and directories")
		cmd.Flags().BoolP("ignore-case", "i", false, "Match the extension case-insensitively")
	}

	listCmd.Flags().StringVarP(&listExtension, "extension", "e", "", "File extension to search for")
	listCmd.MarkFlagRequired("extension")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "Limit the number of files displayed")
	listCmd.Flags().BoolVarP(&listTree, "tree", "t", false, "Display the files as a directory tree")
	listCmd.Flags().BoolVarP(&listClipboard, "clipboard", "c", false, "Copy the full list of paths to the clipboard")
	listCmd.Flags().StringVar(&listPDF, "pdf", "", "Save the listing as a PDF report")

	copyCmd.Flags().StringVarP(&copyExtension, "extension", "e", "", "File extension to search for")
	copyCmd.MarkFlagRequired("extension")
	copyCmd.Flags().BoolVarP(&copyReconstruct, "reconstruct", "r", false, "Reconstruct the original directory structure")
	copyCmd.Flags().BoolVar(&copyInteractive, "interactive", false, "Pick the files to copy with a fuzzy finder")

	rootCmd.AddCommand(listCmd, copyCmd, clearCmd)

	viper.SetDefault("log_level", "info")
	viper.SetDefault("respect_gitignore", false)
	viper.SetDefault("skip_hidden", false)
	viper.SetDefault("ignore_case", false)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "dscraper"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("DSCRAPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match DSCRAPER_*

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}
}

// bindDiscoveryFlags points the discovery viper keys at the running command's
// flags; list and copy each own a copy of them.
func bindDiscoveryFlags(cmd *cobra.Command) {
	viper.BindPFlag("respect_gitignore", cmd.Flags().Lookup("gitignore"))
	viper.BindPFlag("skip_hidden", cmd.Flags().Lookup("skip-hidden"))
	viper.BindPFlag("ignore_case", cmd.Flags().Lookup("ignore-case"))
}

// session is the per-invocation state derived from config and flags.
type session struct {
	output  OutputRoot
	opts    DiscoverOptions
	console *log.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	console := newConsoleLogger(cmd.ErrOrStderr(), viper.GetString("log_level"))

	outputPath := viper.GetString("output_root")
	if outputPath == "" {
		var err error
		outputPath, err = defaultOutputRoot()
		if err != nil {
			return nil, err
		}
	}
	output := OutputRoot{Path: outputPath}
	if err := output.Ensure(); err != nil {
		return nil, err
	}
	console.Debug("using output root", "path", output.Path)

	return &session{
		output: output,
		opts: DiscoverOptions{
			IgnoreCase:       viper.GetBool("ignore_case"),
			SkipHidden:       viper.GetBool("skip_hidden"),
			RespectGitignore: viper.GetBool("respect_gitignore"),
			Exclude:          []string{output.Path},
			Logger:           console,
		},
		console: console,
	}, nil
}

// release drops the output root lock, warning if that fails.
func (s *session) release(unlock func() error) {
	if err := unlock(); err != nil {
		s.console.Warn("releasing output root lock", "err", err)
	}
}

// searchRoot resolves the directory to search: a fresh clone of --repo, --root,
// or the working directory. cleanup must always be called.
func (s *session) searchRoot(cmd *cobra.Command) (string, func(), error) {
	noop := func() {}
	if repoURL == "" {
		if rootDir != "" {
			return rootDir, noop, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", noop, fmt.Errorf("%w: %w", ErrFilesystemAccess, err)
		}
		return wd, noop, nil
	}

	if !isGitURL(repoURL) {
		return "", noop, fmt.Errorf("--repo %q does not look like a git URL", repoURL)
	}
	s.console.Info("cloning repository", "url", repoURL)
	dir, err := cloneGitRepo(repoURL, cmd.ErrOrStderr())
	if err != nil {
		return "", noop, err
	}
	return dir, func() {
		s.console.Debug("removing clone", "path", dir)
		_ = os.RemoveAll(dir)
	}, nil
}

// discover runs and times a discovery, printing the "files found" line.
func (s *session) discover(cmd *cobra.Command, root, extension string) (*Discovery, string, error) {
	start := time.Now()
	found, err := Discover(root, extension, s.opts)
	if err != nil {
		return nil, "", err
	}
	elapsed := formatElapsed(time.Since(start))
	printFound(cmd.OutOrStdout(), len(found.Files), elapsed)
	return found, elapsed, nil
}

func runList(cmd *cobra.Command, args []string) error {
	bindDiscoveryFlags(cmd)
	ext, err := normalizeExtension(listExtension)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	root, cleanup, err := s.searchRoot(cmd)
	defer cleanup()
	if err != nil {
		return err
	}

	found, elapsed, err := s.discover(cmd, root, ext)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listTree {
		shown := found.Files
		if listLimit > 0 && len(shown) > listLimit {
			shown = shown[:listLimit]
		}
		fmt.Fprint(out, printTree(buildTree(shown, found.Root)))
		if len(found.Files) > len(shown) {
			fmt.Fprintf(out, "+ %d more\n", len(found.Files)-len(shown))
		}
	} else {
		printListing(out, found.Files, listLimit)
	}

	if listClipboard {
		if err := clipboard.WriteAll(strings.Join(found.Files, "\n")); err != nil {
			s.console.Warn("could not write to clipboard", "err", err)
		} else {
			fmt.Fprintln(out, "Paths copied to clipboard.")
		}
	}

	if listPDF != "" {
		report := listingReport{
			Root:      found.Root,
			Extension: ext,
			Elapsed:   elapsed,
			Files:     found.Files,
			Skipped:   found.Skipped,
		}
		if err := generatePDF(report, listPDF); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report saved to %s\n", listPDF)
	}
	return nil
}

func runCopy(cmd *cobra.Command, args []string) error {
	bindDiscoveryFlags(cmd)
	ext, err := normalizeExtension(copyExtension)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	unlock, err := s.output.Lock()
	if err != nil {
		return err
	}
	defer s.release(unlock)

	root, cleanup, err := s.searchRoot(cmd)
	defer cleanup()
	if err != nil {
		return err
	}

	found, elapsed, err := s.discover(cmd, root, ext)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	files := found.Files
	if copyInteractive {
		files, err = pickFiles(files, found.Root)
		if errors.Is(err, errSelectionAborted) {
			fmt.Fprintln(out, "Interactive selection aborted.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	copyLog, closer, err := openCopyLog(s.output)
	if err != nil {
		return err
	}
	defer closer.Close()

	mode := LayoutFlat
	if copyReconstruct {
		mode = LayoutReconstructed
	}

	baseDir, err := reconstructionBase(found.Root)
	if err != nil {
		return err
	}

	m := NewMaterializer(MaterializerConfig{
		Output:  s.output,
		BaseDir: baseDir,
		Logger:  copyLog,
	})
	outcome, err := m.Materialize(files, ext, mode)
	if err != nil {
		return err
	}
	printCopySummary(out, outcome)

	if outcome.Failures > 0 {
		s.console.Warn("some files failed to copy", "failures", outcome.Failures, "log", filepath.Join(s.output.LogsDir(), copyLogName))
	}
	if path, err := writeManifest(s.output, found.Root, elapsed, outcome); err != nil {
		s.console.Warn("could not write manifest", "err", err)
	} else {
		s.console.Debug("manifest written", "path", path)
	}
	return nil
}

// reconstructionBase is the working directory, unless the searched root lies
// outside it (a clone or an unrelated --root), in which case the root itself.
func reconstructionBase(root string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: resolving working directory: %w", ErrTargetPreparation, err)
	}
	if isWithin(wd, root) {
		return wd, nil
	}
	return root, nil
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	unlock, err := s.output.Lock()
	if err != nil {
		return err
	}
	defer s.release(unlock)

	result, err := s.output.Clear()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Searches {
		fmt.Fprintln(out, "Searches cleared")
	}
	if result.Reconstructions {
		fmt.Fprintln(out, "Reconstructions cleared")
	}
	if !result.Searches && !result.Reconstructions {
		fmt.Fprintln(out, "No searches to clear")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
