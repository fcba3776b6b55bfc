package main

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/Lanec/lib/project"
)

func init() {
	commands = append(commands, &cli.Command{
		Name:     "version",
		Usage:    "Print the compiler version",
		Category: "version",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "require",
				Aliases: []string{"r"},
				Usage:   "Fail unless the compiler satisfies this semver constraint",
			},
		},
		Action: version,
	})
}

func version(c *cli.Context) error {
	v := semver.MustParse(Version)
	if req := c.String("require"); req != "" {
		constraint, err := semver.NewConstraint(req)
		if err != nil {
			return cli.Exit(color.RedString("Error: invalid constraint %q: %s", req, err), 1)
		}
		if ok, errs := constraint.Validate(v); !ok {
			return cli.Exit(color.RedString("lanec %s does not satisfy %s: %s", v, req, errs[0]), 1)
		}
	}
	fmt.Fprintf(c.App.Writer, "lanec %s (%s/%s, packed width %d by default)\n", v, runtime.GOOS, runtime.GOARCH, project.DefaultPackedWidth)
	return nil
}
