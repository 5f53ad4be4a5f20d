// Command ripcache-node starts one cluster node from a redis.conf-style
// config file: client listener, cluster bus, gossip/heartbeat loop,
// failover state machine, and (if configured) the admin HTTP surface.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ripcache/internal/config"
	"ripcache/internal/runtime"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var adminAddr string
	var debug bool

	cmd := &cobra.Command{
		Use:     "ripcache-node <conf-path>",
		Short:   "Start a ripcache cluster node",
		Args:    cobra.ExactArgs(1),
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			if debug {
				log.SetLevel(logrus.DebugLevel)
			}
			entry := logrus.NewEntry(log)

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if adminAddr != "" {
				cfg.AdminAddress = adminAddr
			}

			node, err := runtime.New(cfg, entry)
			if err != nil {
				return err
			}
			if err := node.Start(); err != nil {
				return err
			}
			entry.WithField("address", cfg.Address).Info("node started")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			entry.Info("shutting down")
			return node.Close()
		},
	}

	cmd.Flags().StringVar(&adminAddr, "admin-address", "", "override the conf file's admin_address")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}
