// Command layerconfirm shows a fullscreen confirmation overlay and runs a
// shell command when the user presses Enter.
//
// Usage:
//
//	layerconfirm -c COMMAND [flags]
//
// Flags:
//
//	-m, --message string   Message to display for confirmation
//	-c, --command string   Command to execute if confirmed
//	-s, --css string       Style sheet to use
//	    --backend string   Overlay backend: auto, layershell or x11 (default "auto")
//	    --layer string     Layer-shell layer: top or overlay (default "top")
//	    --config string    Path to the configuration file
//	-v, --verbose          Verbose output
//	    --debug            Debug output
//	    --version          Print version information
//	-h, --help             Display help information
//
// Pressing Return, KP_Enter or ISO_Enter replaces layerconfirm with
// `sh -c COMMAND`. Any other key or a click dismisses the overlay and
// layerconfirm exits 0.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/layerconfirm/layerconfirm/internal/app"
	"github.com/layerconfirm/layerconfirm/internal/config"
	"github.com/layerconfirm/layerconfirm/internal/logging"
	"github.com/layerconfirm/layerconfirm/internal/resolver"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "layerconfirm"

// Exit codes
const (
	exitOK          = 0
	exitEnvironment = 1
	exitUsage       = 2
	exitExec        = 127
)

// replaced in tests
var runApp = app.Run

func init() {
	// GTK and the X11 event loop must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	showVersion := fs.Bool("version", false, "Print version information")
	help := fs.BoolP("help", "h", false, "Display help information")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		fs.Usage()
		return exitUsage
	}

	if *help {
		printUsage(stdout, fs)
		return exitOK
	}
	if *showVersion {
		fmt.Fprintf(stdout, "%s version %s\n", appName, version)
		fmt.Fprintf(stdout, "  commit: %s\n", commit)
		fmt.Fprintf(stdout, "  built:  %s\n", date)
		return exitOK
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: invalid configuration: %v\n\n", appName, err)
		fs.Usage()
		return exitUsage
	}

	log := logging.New(stderr, cfg.Log.Verbose, cfg.Log.Debug)
	defer log.Sync()
	log.Debugf("%s", cfg)

	outcome, err := runApp(cfg, log)
	return exitCode(outcome, err, log)
}

type errorLogger interface {
	Errorw(msg string, keysAndValues ...interface{})
}

// exitCode maps the result of a confirmation cycle to the process status.
// A successful confirmation never gets here because the process has been
// replaced.
func exitCode(outcome resolver.Outcome, err error, log errorLogger) int {
	if err == nil {
		return exitOK
	}
	if outcome == resolver.OutcomeConfirmed {
		log.Errorw("could not run command", "error", err)
		return exitExec
	}
	log.Errorw("overlay failed", "error", err)
	return exitEnvironment
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `%s - fullscreen confirmation overlay

Usage:
  %s -c COMMAND [flags]

Flags:
%s
Press Enter to run COMMAND with sh -c. Any other key or a click cancels.

Environment Variables:
  %s_MESSAGE, %s_COMMAND, %s_CSS, %s_BACKEND, %s_LAYER
  Config file: config.yaml in %v

Version: %s
`, appName, appName, fs.FlagUsages(),
		config.EnvPrefix, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix,
		config.SearchPaths(), version)
}
