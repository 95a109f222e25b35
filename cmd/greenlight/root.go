package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "greenlight",
	Short:         "Approval and publication workflow tooling",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("temporal-host-port", "localhost:7233", "Temporal frontend address")
	pf.String("temporal-namespace", "default", "Temporal namespace")
	pf.String("task-queue", "greenlight-approvals", "Temporal task queue")
	pf.String("store-dsn", "", "SQLite DSN for the item store (empty: in-memory)")
	pf.String("media-dir", "", "filesystem root for media (empty: in-memory)")
	pf.Duration("token-ttl", 0, "callback token TTL (0: worker default)")
	pf.String("metrics-addr", "", "Prometheus listen address (empty: disabled)")

	must(viper.BindPFlag("temporal.host_port", pf.Lookup("temporal-host-port")))
	must(viper.BindPFlag("temporal.namespace", pf.Lookup("temporal-namespace")))
	must(viper.BindPFlag("temporal.task_queue", pf.Lookup("task-queue")))
	must(viper.BindPFlag("store.dsn", pf.Lookup("store-dsn")))
	must(viper.BindPFlag("media.dir", pf.Lookup("media-dir")))
	must(viper.BindPFlag("review.token_ttl", pf.Lookup("token-ttl")))
	must(viper.BindPFlag("metrics.addr", pf.Lookup("metrics-addr")))
}

func initConfig() {
	viper.SetConfigName("greenlight")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.greenlight")

	viper.SetEnvPrefix("GREENLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
