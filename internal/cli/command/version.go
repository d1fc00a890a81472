package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/syncx-go/internal/infra/buildinfo"
	"github.com/yndnr/syncx-go/internal/output"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Action: showVersion,
	}
}

func showVersion(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	info := buildinfo.Get()
	if env.Format == output.FormatTable {
		fmt.Fprintf(env.Out, "syncx-bench %s\n", buildinfo.String())
		fmt.Fprintf(env.Out, "  Go:       %s\n", info.GoVersion)
		fmt.Fprintf(env.Out, "  Platform: %s\n", info.Platform)
		fmt.Fprintf(env.Out, "  Built:    %s\n", info.BuildTime)
		return nil
	}
	return env.Print(info)
}
