package cli

import (
	urfave "github.com/urfave/cli/v2"

	"github.com/wizenheimer/tripwire/internal/config"
)

var (
	configDirFlag = &urfave.StringFlag{
		Name:  "dir",
		Usage: "Config directory (optional, default: $HOME/.tripwire)",
	}

	configCmd = &urfave.Command{
		Name:  "config",
		Usage: "Manage the tripwire config file",
		Subcommands: []*urfave.Command{
			{
				Name:   "init",
				Usage:  "Create the config file with defaults if it does not exist and print it",
				Action: cmdConfigInit,
				Flags:  []urfave.Flag{configDirFlag},
			},
			{
				Name:   "show",
				Usage:  "Print the effective config",
				Action: cmdConfigShow,
			},
		},
	}
)

func cmdConfigInit(c *urfave.Context) error {
	dir := c.String(configDirFlag.Name)
	if dir == "" {
		home, err := config.HomeDir()
		if err != nil {
			return err
		}
		dir = home
	}

	cfg, err := config.ReadOrCreate(dir)
	if err != nil {
		return err
	}
	return encode(c, cfg)
}

func cmdConfigShow(c *urfave.Context) error {
	return encode(c, getConfig(c).Config)
}
