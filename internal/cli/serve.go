package cli

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	urfave "github.com/urfave/cli/v2"

	"github.com/wizenheimer/tripwire/internal/server"
)

var (
	addressFlag = &urfave.StringFlag{
		Name:    "address",
		Aliases: []string{"addr"},
		Usage:   "Address on which the server will listen (optional, default: config server.address)",
	}

	serveCmd = &urfave.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the HTTP scoring server",
		Action:  cmdServe,
		Flags: []urfave.Flag{
			addressFlag,
		},
	}
)

func cmdServe(c *urfave.Context) error {
	a, err := getAnalyzer(c)
	if err != nil {
		return err
	}

	cfg := getConfig(c)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	address := cfg.Server.Address
	if v := c.String(addressFlag.Name); v != "" {
		address = v
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, address, server.New(a, lexiconName(c)).Handler())
}
