package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/verichain/api/evidencehandler"
	"github.com/ruteri/verichain/cmd/flags"
	"github.com/ruteri/verichain/config"
	"github.com/ruteri/verichain/httpserver"
	"github.com/urfave/cli/v2"
)

var ServerServiceLogFlag = flags.LogServiceFlagFn("verichain")

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Usage: "address to listen on for API, overrides server.listen_addr",
}

var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	EnvVars: []string{"VAULT_TOKEN"},
	Usage:   "token for a vault:// key store",
}

func main() {
	app := &cli.App{
		Name:  "verichain-server",
		Usage: "Serve the encrypted evidence store",
		Flags: append([]cli.Flag{flags.ConfigFlag, ListenAddrFlag, flags.RpcAddrFlag, VaultTokenFlag, ServerServiceLogFlag}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			cfg, err := config.Load(cCtx.String(flags.ConfigFlag.Name))
			if err != nil {
				logger.Error("Failed to load config", "err", err)
				return err
			}
			if cCtx.IsSet(ListenAddrFlag.Name) {
				cfg.Server.ListenAddr = cCtx.String(ListenAddrFlag.Name)
			}
			if cCtx.IsSet(flags.RpcAddrFlag.Name) {
				cfg.Cluster.RPCURL = cCtx.String(flags.RpcAddrFlag.Name)
			}
			if err := cfg.Validate(); err != nil {
				logger.Error("Invalid config", "err", err)
				return err
			}

			deps, err := setupService(cCtx.Context, cfg, cCtx.String(VaultTokenFlag.Name), logger)
			if err != nil {
				logger.Error("Failed to initialize evidence service", "err", err)
				return err
			}
			defer deps.Close()

			serverCfg := flags.ConfigureServer(cCtx, logger, cfg.Server.ListenAddr, cfg.Server.MaxUploadBytes)
			server, err := httpserver.New(serverCfg, evidencehandler.NewHandler(deps.service, serverCfg))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}
			server.MetricsRegisterer().MustRegister(deps.metrics.Collectors()...)

			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
