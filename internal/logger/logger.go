// Package logger configures the standard logrus logger for the command line
// tools.
package logger

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

type LogOptions struct {
	// OutputPath is the directory of the log file. Empty disables the file.
	OutputPath string
	// Verbose enables debug logging.
	Verbose bool
	// DisableColor disables colored console output.
	DisableColor bool
}

func Init(options LogOptions) error {
	if options.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetReportCaller(options.Verbose)

	logrus.SetFormatter(&Formatter{
		DisableColor: options.DisableColor,
	})

	if options.OutputPath != "" {
		fh, err := NewFileHook(options.OutputPath)
		if err != nil {
			return errors.Wrap(err, "failed to init log file hook")
		}
		logrus.AddHook(fh)
	}

	return nil
}
