/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SUDUOKU"

type Config struct {
	bind        string
	chatLimit   int
	database    string
	databaseURL string
	frontend    string
	port        int
	prefix      string
	profile     bool
	readLimit   int
	tlsCert     string
	tlsKey      string
	verbose     bool
	version     bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.chatLimit < 0 {
		return fmt.Errorf("invalid chat limit (must be 0 or greater): %d", c.chatLimit)
	}
	if c.readLimit < 1024 {
		return fmt.Errorf("invalid read limit (must be at least 1024 bytes): %d", c.readLimit)
	}
	if c.databaseURL == "" && strings.TrimSpace(c.database) == "" {
		return errors.New("one of --database or --database-url is required")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindEnv lets every flag in fs be set from SUDUOKU_<FLAG>, unless it was
// given on the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func normalizeFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "suduoku",
		Short:         "Collaborative, real-time sudoku rooms over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			bindEnv(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	normalizeFlags(pfs)

	pfs.StringVarP(&cfg.database, "database", "d", "sudokugames.db", "path to sqlite database (env: SUDUOKU_DATABASE)")
	pfs.StringVar(&cfg.databaseURL, "database-url", "", "postgresql connection url, replaces --database when set (env: SUDUOKU_DATABASE_URL)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SUDUOKU_VERBOSE)")

	fs := cmd.Flags()
	normalizeFlags(fs)

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SUDUOKU_BIND)")
	fs.IntVar(&cfg.chatLimit, "chat-limit", 0, "maximum chat messages replayed per room, 0 for all (env: SUDUOKU_CHAT_LIMIT)")
	fs.StringVar(&cfg.frontend, "frontend", "", "directory of built frontend files to serve (env: SUDUOKU_FRONTEND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SUDUOKU_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SUDUOKU_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SUDUOKU_PROFILE)")
	fs.IntVar(&cfg.readLimit, "read-limit", 65536, "maximum size in bytes of an inbound websocket message (env: SUDUOKU_READ_LIMIT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SUDUOKU_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SUDUOKU_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SUDUOKU_VERSION)")

	cmd.AddCommand(newImportCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("suduoku v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
