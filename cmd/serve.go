package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gvspd/gvspd/confengine"
	"github.com/gvspd/gvspd/daemon"
	"github.com/gvspd/gvspd/internal/sigs"
	"github.com/gvspd/gvspd/logger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GVSP receiver in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		d, err := daemon.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create daemon: %v\n", err)
			os.Exit(1)
		}
		if err := d.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				d.Stop()
				return

			case <-sigs.Reload():
				reloadTotal++

				cfg, err := confengine.LoadConfigPath(configPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to load config (count=%d): %v\n", reloadTotal, err)
					continue
				}

				start := time.Now()
				if err := d.Reload(cfg); err != nil {
					logger.Errorf("failed to reload config: %v", err)
				}
				logger.Infof("reload (count=%d) took %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "# gvspd serve --config gvspd.yaml",
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "gvspd.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}
