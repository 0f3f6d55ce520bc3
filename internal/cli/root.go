// Package cli implements the scene-diff command line.
package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/config"
	"github.com/pstuifzand/scene-diff/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
	colorMode   string

	strategy    string
	trackParent bool
	comparator  string
}

const (
	colorModeNever  = "never"
	colorModeAlways = "always"
)

var supportedColorModes = []string{
	colorModeNever,
	colorModeAlways,
}

var longRootCmdDescription = `scene-diff compares snapshots of a UI scene tree and emits the minimal
ordered mutation records that turn one into the other. It can apply the
records to a mirror tree, convert scene files between formats and turn a
series of captured frames into replay events.
`

// app carries state shared by the subcommands
type app struct {
	opts rootOpts
	cfg  *config.Config
}

// NewRootCmd builds the scene-diff command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "scene-diff",
		Short:         "Diff UI scene snapshots into mutation records",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.cfgFile, "config", "", "config file (default is $HOME/.config/scene-diff/config.toml)")
	flags.BoolVarP(&a.opts.debugModeOn, "debug", "d", false, "turn on debug logging")
	flags.StringVar(&a.opts.colorMode, "color", colorModeAlways, fmt.Sprintf("set the log color mode, the possible values can be %v", supportedColorModes))
	flags.StringVarP(&a.opts.strategy, "strategy", "s", "", "diff strategy: set-based or move-aware (default from config)")
	flags.BoolVar(&a.opts.trackParent, "track-parent", false, "report reparented nodes as updated with the set-based strategy")
	flags.StringVar(&a.opts.comparator, "comparator", "", "content comparator: exact or style (default from config)")

	rootCmd.AddCommand(
		newDiffCmd(a),
		newApplyCmd(a),
		newReplayCmd(a),
		newCaptureCmd(a),
		newServeCmd(a),
		newSendCmd(a),
		newConvertCmd(a),
		newGenerateCmd(a),
	)
	rootCmd.DisableAutoGenTag = true
	return rootCmd
}

// init loads the configuration, applies command line overrides and sets up
// logging.
func (a *app) init(cmd *cobra.Command) error {
	var err error
	if a.opts.cfgFile != "" {
		a.cfg, err = config.LoadFromFile(a.opts.cfgFile)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		a.cfg.Set("strategy", a.opts.strategy)
	}
	if flags.Changed("track-parent") {
		a.cfg.Set("track_parent", fmt.Sprint(a.opts.trackParent))
	}
	if flags.Changed("comparator") {
		a.cfg.Set("comparator", a.opts.comparator)
	}

	switch a.opts.colorMode {
	case colorModeNever, colorModeAlways:
	default:
		return errors.Newf("unsupported color mode %q, the possible values can be %v", a.opts.colorMode, supportedColorModes)
	}

	if err := logger.Init(logger.LogOptions{
		Verbose:      a.opts.debugModeOn || a.cfg.Log.Verbose,
		OutputPath:   a.cfg.Log.Dir,
		DisableColor: a.opts.colorMode == colorModeNever,
	}); err != nil {
		return err
	}
	logrus.Debugf("strategy %s, comparator %s", a.cfg.Get("strategy"), a.cfg.Get("comparator"))
	return nil
}

// Execute runs the command line. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("scene-diff: %v", err)
		os.Exit(1)
	}
}
