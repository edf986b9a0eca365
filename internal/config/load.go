package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LAYERCONFIRM_CSS
const EnvPrefix = "LAYERCONFIRM"

// Keys shared by flags, environment variables and the config file
const (
	KeyMessage = "message"
	KeyCommand = "command"
	KeyCSS     = "css"
	KeyBackend = "backend"
	KeyLayer   = "layer"
	KeyVerbose = "verbose"
	KeyDebug   = "debug"
	KeyConfig  = "config"
)

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(KeyMessage, "m", "", "message to display for confirmation")
	fs.StringP(KeyCommand, "c", "", "command to execute if confirmed")
	fs.StringP(KeyCSS, "s", "", "style sheet to use")
	fs.String(KeyBackend, d.Display.Backend, "overlay backend: auto, layershell or x11")
	fs.String(KeyLayer, d.Display.Layer, "layer-shell layer: top or overlay")
	fs.String(KeyConfig, "", "path to the configuration file")
	fs.BoolP(KeyVerbose, "v", false, "verbose output")
	fs.Bool(KeyDebug, false, "debug output")
}

// Load builds the configuration from, in order of precedence:
// 1. Command-line flags
// 2. LAYERCONFIRM_* environment variables
// 3. The configuration file
// 4. Default values
//
// A config file that is not found in the search path is not an error. A
// file named with --config must exist.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := Default()

	v.SetDefault(KeyBackend, d.Display.Backend)
	v.SetDefault(KeyLayer, d.Display.Layer)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "unable to bind flags")
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Overlay: OverlayConfig{
			Message:    v.GetString(KeyMessage),
			Command:    v.GetString(KeyCommand),
			Stylesheet: expandHome(v.GetString(KeyCSS)),
		},
		Display: DisplayConfig{
			Backend: v.GetString(KeyBackend),
			Layer:   v.GetString(KeyLayer),
		},
		Log: LogConfig{
			Verbose: v.GetBool(KeyVerbose),
			Debug:   v.GetBool(KeyDebug),
		},
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(expandHome(path))
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range SearchPaths() {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// SearchPaths returns the directories searched for config.yaml
func SearchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "layerconfirm"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "layerconfirm"))
	}
	return append(dirs, "/etc/layerconfirm")
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
