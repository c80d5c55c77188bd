package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.sr.ht/~spc/go-log"
	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/edge-runtime/edged/internal/conf"
	"github.com/edge-runtime/edged/internal/core"
	"github.com/edge-runtime/edged/internal/docker"
	"github.com/edge-runtime/edged/internal/identity"
	"github.com/edge-runtime/edged/internal/kube"
	"github.com/edge-runtime/edged/internal/l10n"
	"github.com/edge-runtime/edged/internal/logging"
)

// Version is set at build time.
var Version = "dev"

const (
	backendKube   = "kube"
	backendDocker = "docker"
)

// runtimeSettings is what both backends offer the commands.
type runtimeSettings interface {
	core.RuntimeSettings[docker.DockerConfig]
	Encode(w io.Writer) error
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "edged-settings"
	app.Version = Version
	app.Usage = l10n.T("resolve, validate and print edged settings")
	app.HideHelpCommand = true

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   l10n.T("read the main configuration from `FILE`"),
			Value:   docker.DefaultConfigPath,
			EnvVars: []string{conf.ConfigEnvVar},
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Usage:   l10n.T("read drop-in configuration files from `DIR`"),
			Value:   conf.DefaultConfigDir,
			EnvVars: []string{conf.ConfigDirEnvVar},
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: l10n.T("decode settings for `BACKEND` (kube or docker)"),
			Value: backendKube,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: l10n.T("set log level to `LEVEL`"),
			Value: "error",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "check",
			Usage: l10n.T("Validate the configuration"),
			Description: l10n.T(
				"The check command merges the main configuration file with its drop-ins and decodes the result. Every cause of a failure is printed.",
			),
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "strict",
					Usage: l10n.T("reject keys that no setting uses"),
				},
			},
			Action: checkAction,
		},
		{
			Name:  "show",
			Usage: l10n.T("Print the resolved settings as TOML"),
			Description: l10n.T(
				"The show command prints the fully merged settings. For the kube backend, identity facts discovered on this machine are applied first.",
			),
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "identity",
					Usage: l10n.T("read device identity from `FILE`"),
					Value: identity.DefaultIdentityPath,
				},
				&cli.BoolFlag{
					Name:  "derive-device-id",
					Usage: l10n.T("derive the device id from the machine id when none is recorded"),
				},
			},
			Action: showAction,
		},
		{
			Name:   "hostname",
			Usage:  l10n.T("Compare the configured hostname with the system hostname"),
			Action: hostnameAction,
		},
	}

	app.Before = beforeAction

	return app
}

func beforeAction(c *cli.Context) error {
	handler, err := logging.NewHandler(c.String("log-level"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	slog.SetDefault(slog.New(handler))

	switch c.String("backend") {
	case backendKube, backendDocker:
	default:
		return cli.Exit(l10n.T("unknown backend %q", c.String("backend")), 1)
	}
	return nil
}

// configSource locates the configuration the way the daemon does, with
// explicit flags taking precedence.
func configSource(c *cli.Context) *conf.ConfigSource {
	cs := conf.SourceFromEnv(docker.DefaultConfigPath)
	if c.IsSet("config") {
		cs.Path = c.String("config")
	}
	if c.IsSet("config-dir") {
		cs.DropInDir = c.String("config-dir")
	}
	cs.Defaults = core.Defaults
	return cs
}

func loadSettings(c *cli.Context, opts conf.DecodeOptions) (runtimeSettings, error) {
	cs := configSource(c)
	stop := startSpinner(l10n.T("Resolving settings from %v", cs))
	defer stop()

	if c.String("backend") == backendDocker {
		s, err := docker.LoadFrom(cs, opts)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}
	s, err := kube.LoadFrom(cs, opts)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func startSpinner(suffix string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

func checkAction(c *cli.Context) error {
	_, err := loadSettings(c, conf.DecodeOptions{Strict: c.Bool("strict")})
	if err != nil {
		return reportLoadError(c, err)
	}
	fmt.Fprintln(c.App.Writer, l10n.T("settings are valid"))
	return nil
}

// reportLoadError prints the cause chain of err, one cause per line, and
// returns the exit status for a failed load.
func reportLoadError(c *cli.Context, err error) error {
	causes := core.Causes(err)
	fmt.Fprintln(c.App.ErrWriter, causes[0])
	for _, cause := range causes[1:] {
		fmt.Fprintf(c.App.ErrWriter, "  %s %s\n", l10n.T("caused by:"), cause)
	}
	return cli.Exit(l10n.TN("%d cause reported", "%d causes reported", uint32(len(causes)), len(causes)), 1)
}

func showAction(c *cli.Context) error {
	s, err := loadSettings(c, conf.DecodeOptions{})
	if err != nil {
		return reportLoadError(c, err)
	}

	if ks, ok := s.(*kube.Settings); ok {
		id, err := identity.ReadFile(c.String("identity"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if id.DeviceID == "" && c.Bool("derive-device-id") {
			if id.DeviceID, err = identity.MachineDeviceID(); err != nil {
				return cli.Exit(err, 1)
			}
		}
		applied := identity.Apply(*ks, id)
		s = &applied
	}

	return s.Encode(c.App.Writer)
}

func hostnameAction(c *cli.Context) error {
	s, err := loadSettings(c, conf.DecodeOptions{})
	if err != nil {
		return reportLoadError(c, err)
	}
	system, err := identity.SystemHostname()
	if err != nil {
		return cli.Exit(err, 1)
	}

	configured := s.Hostname()
	if !strings.EqualFold(configured, system) {
		slog.Warn("configured hostname differs from system hostname", "configured", configured, "system", system)
		fmt.Fprintln(c.App.Writer, l10n.T("hostname %q differs from %q", configured, system))
		return nil
	}
	fmt.Fprintln(c.App.Writer, configured)
	return nil
}
