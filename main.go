package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/Lanec/lib/parser"
)

const Version = "0.3.1"

var commands []*cli.Command

func init() {
	commands = append(commands, &cli.Command{
		Name:     "grammar",
		Usage:    "Print the EBNF grammar of the language",
		Category: "compile",
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, parser.Parser().String())
			return nil
		},
	})
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "lanec",
		Usage:                  "Compile Lane programs with simd classes to LLVM IR",
		Version:                Version,
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Commands:               commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %s", err))
		os.Exit(1)
	}
}
