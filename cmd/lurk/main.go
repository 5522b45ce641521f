package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lurktail/lurk/internal/config"
	"github.com/lurktail/lurk/internal/diag"
	"github.com/lurktail/lurk/internal/filesystem"
	"github.com/lurktail/lurk/internal/follow"
	"github.com/lurktail/lurk/internal/procwatch"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "lurk [file...]",
	Short: "A tail implementation built around a single-threaded follow engine",
	Long: `lurk emits a trailing window of lines or bytes from one or more files
(or standard input), and can keep following appended data across growth,
truncation, rotation, deletion, and re-creation.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	RunE:          runLurk,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.Flags().StringP("lines", "n", "10", "output the last NUM lines (use +NUM to start from line NUM)")
	rootCmd.Flags().StringP("bytes", "c", "", "output the last NUM bytes (use +NUM to start from byte NUM)")
	rootCmd.Flags().StringP("follow", "f", "", "follow the file; optionally =name or =descriptor")
	rootCmd.Flags().Lookup("follow").NoOptDefVal = "descriptor" // -f or --follow without value defaults to descriptor
	rootCmd.Flags().BoolP("follow-name-retry", "F", false, "same as --follow=name --retry")
	rootCmd.Flags().Float64P("sleep-interval", "s", 1.0, "with -f, sleep for approximately NUM seconds between iterations")
	rootCmd.Flags().Int("pid", 0, "with -f, terminate after process ID PID dies")
	rootCmd.Flags().BoolP("quiet", "q", false, "never output headers giving file names")
	rootCmd.Flags().BoolP("verbose", "v", false, "always output headers giving file names")
	rootCmd.Flags().Bool("retry", false, "keep trying to open a file if it is inaccessible")
	rootCmd.Flags().BoolP("zero-terminated", "z", false, "line delimiter is NUL, not newline")
	rootCmd.Flags().Bool("disable-inotify", false, "force the polling backend instead of filesystem notifications")
	rootCmd.Flags().Int("max-unchanged-stats", 0, "with --follow=name, reopen after NUM iterations with no change, to detect silent rotation")
	rootCmd.Flags().String("config", "", "path to a config file providing flag defaults")

	viper.BindPFlag("lines", rootCmd.Flags().Lookup("lines"))
	viper.BindPFlag("bytes", rootCmd.Flags().Lookup("bytes"))
	viper.BindPFlag("follow", rootCmd.Flags().Lookup("follow"))
	viper.BindPFlag("follow-name-retry", rootCmd.Flags().Lookup("follow-name-retry"))
	viper.BindPFlag("sleep-interval", rootCmd.Flags().Lookup("sleep-interval"))
	viper.BindPFlag("pid", rootCmd.Flags().Lookup("pid"))
	viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	viper.BindPFlag("retry", rootCmd.Flags().Lookup("retry"))
	viper.BindPFlag("zero-terminated", rootCmd.Flags().Lookup("zero-terminated"))
	viper.BindPFlag("disable-inotify", rootCmd.Flags().Lookup("disable-inotify"))
	viper.BindPFlag("max-unchanged-stats", rootCmd.Flags().Lookup("max-unchanged-stats"))

	cobra.OnInitialize(initConfigFile)
}

// initConfigFile wires an optional --config file into viper so flag
// defaults can come from a file, the way the teacher's viper binding left
// room for environment/config-file overrides to sit underneath explicit
// flags.
func initConfigFile() {
	path, _ := rootCmd.Flags().GetString("config")
	if path == "" {
		return
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "lurk: %v\n", err)
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

func runLurk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	flags := config.Flags{
		Lines:             viper.GetString("lines"),
		Bytes:             viper.GetString("bytes"),
		BytesSet:          cmd.Flags().Changed("bytes"),
		FollowValue:       viper.GetString("follow"),
		FollowSet:         cmd.Flags().Changed("follow"),
		FollowName:        viper.GetBool("follow-name-retry"),
		Retry:             viper.GetBool("retry"),
		SleepInterval:     fmt.Sprintf("%v", viper.GetFloat64("sleep-interval")),
		PID:               viper.GetInt("pid"),
		HasPID:            cmd.Flags().Changed("pid"),
		Quiet:             viper.GetBool("quiet"),
		Verbose:           viper.GetBool("verbose"),
		ZeroTerminated:    viper.GetBool("zero-terminated"),
		DisableInotify:    viper.GetBool("disable-inotify"),
		MaxUnchangedStats: viper.GetInt("max-unchanged-stats"),
	}

	cfg, err := config.Load(flags, args)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "lurk: %v\n", err)
		return errExitOne
	}

	d := diag.New(cmd.ErrOrStderr(), "lurk", cfg.Verbose)
	engine := follow.New(cfg, filesystem.NewFileOpener(), cmd.OutOrStdout(), d, procwatch.New(), cmd.InOrStdin())

	if err := engine.Run(ctx); err != nil {
		return errExitOne
	}
	return nil
}

// errExitOne is returned by runLurk to signal exit code 1 without cobra
// printing a second "Error: ..." line — the diagnostic was already written
// to stderr by the config layer or the follow engine.
var errExitOne = fmt.Errorf("")
