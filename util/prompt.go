package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Prompter asks questions on Out and reads the answers from In. A closed
// input answers every question with its default.
type Prompter struct {
	In  *bufio.Reader
	Out io.Writer
}

var Stdio = &Prompter{In: bufio.NewReader(os.Stdin), Out: os.Stdout}

func (p *Prompter) answer(question string) string {
	fmt.Fprint(p.Out, color.CyanString("? ")+question)
	response, err := p.In.ReadString('\n')
	if err != nil && response == "" {
		fmt.Fprintln(p.Out)
		return ""
	}
	return strings.TrimSpace(response)
}

func (p *Prompter) String(prompt string, def string) string {
	response := p.answer(fmt.Sprintf("%s (%s): ", prompt, def))
	if response == "" {
		return def
	}
	return response
}

func (p *Prompter) YN(prompt string, def bool) bool {
	hint := "(y/N)"
	if def {
		hint = "(Y/n)"
	}
	response := strings.ToLower(p.answer(prompt + " " + hint + ": "))
	switch response {
	case "":
		return def
	case "y", "yes":
		return true
	}
	return false
}

func PromptString(prompt string, def string) string { return Stdio.String(prompt, def) }

func PromptYN(prompt string, def bool) bool { return Stdio.YN(prompt, def) }
