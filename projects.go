package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/Lanec/lib/cache"
	"github.com/vyPal/Lanec/lib/project"
	"github.com/vyPal/Lanec/util"
)

const starter = `extern puts(x: int);

simd class Particle {
	var x: real
	var v: real

	simd writer step(dt: real) {
		self.x = self.x + self.v * dt;
	}
}

class Main {
	routine main() -> (code: int) {
		c_call puts(0);
		code = 0;
	}
}
`

func init() {
	commands = append(commands, &cli.Command{
		Name:      "init",
		Usage:     "Initialize a new project",
		ArgsUsage: "[directory]",
		Category:  "project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "The name of the project",
			},
			&cli.StringFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "The version of the project",
			},
			&cli.StringFlag{
				Name:    "main",
				Aliases: []string{"m"},
				Usage:   "The main file of the project",
			},
			&cli.StringFlag{
				Name:    "author",
				Aliases: []string{"a"},
				Usage:   "The author of the project",
			},
			&cli.StringFlag{
				Name:    "license",
				Aliases: []string{"l"},
				Usage:   "The license of the project",
			},
			&cli.IntFlag{
				Name:  "packed-width",
				Usage: "Lane count of packed functions",
				Value: project.DefaultPackedWidth,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept the defaults without asking",
			},
		},
		Action: initProject,
	}, &cli.Command{
		Name:     "clean",
		Usage:    "Remove the build cache of the current project",
		Category: "project",
		Action:   cleanProject,
	})
}

func initProject(c *cli.Context) error {
	rootDir := c.Args().First()
	if rootDir == "" {
		rootDir = "."
	}
	yes := c.Bool("yes")

	if _, err := os.Stat(rootDir); !os.IsNotExist(err) {
		files, err := os.ReadDir(rootDir)
		if err != nil {
			return err
		}
		if len(files) > 0 && !yes && !util.PromptYN("The directory is not empty, continue?", false) {
			return nil
		}
	} else {
		if err := os.MkdirAll(rootDir, 0755); err != nil {
			return errors.Wrap(err, "creating project directory")
		}
		fmt.Fprintln(c.App.Writer, "Created directory:", rootDir)
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return err
	}
	var conf project.Config
	conf.CreateDefault(filepath.Base(abs))
	conf.Compiler.PackedWidth = c.Int("packed-width")

	ask := func(flag, prompt string, field *string) {
		switch {
		case c.IsSet(flag):
			*field = c.String(flag)
		case !yes:
			*field = util.PromptString(prompt, *field)
		}
	}
	if yes || util.PromptYN("Use default configuration?", false) {
		yes = true
	}
	ask("name", "Project name", &conf.Name)
	if !yes {
		conf.Description = util.PromptString("Project description", conf.Description)
	}
	ask("version", "Project version", &conf.Version)
	ask("main", "Main file", &conf.Main)
	ask("author", "Author", &conf.Author)
	ask("license", "License", &conf.License)
	if !yes && !c.IsSet("packed-width") {
		w := util.PromptString("Packed width", strconv.Itoa(conf.Compiler.PackedWidth))
		n, err := strconv.Atoi(w)
		if err != nil {
			return cli.Exit(color.RedString("Error: packed width %q is not a number", w), 1)
		}
		conf.Compiler.PackedWidth = n
	}
	if err := conf.Validate(Version); err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}

	mainFile := filepath.Join(rootDir, conf.Main)
	if _, err := os.Stat(mainFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(mainFile), 0755); err != nil {
			return errors.Wrap(err, "creating source directory")
		}
		if err := os.WriteFile(mainFile, []byte(starter), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", mainFile)
		}
		fmt.Fprintln(c.App.Writer, "Created file:", mainFile)
	}

	confFile := filepath.Join(rootDir, project.FileName)
	if err := conf.Save(confFile, yes); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Created file:", confFile)
	return nil
}

func cleanProject(c *cli.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	bc, err := cache.Open(cwd)
	if err != nil {
		return err
	}
	if err := bc.Clean(); err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	color.Green("Cache cleaned")
	return nil
}
