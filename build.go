package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vyPal/Lanec/lib/analyzer"
	"github.com/vyPal/Lanec/lib/cache"
	"github.com/vyPal/Lanec/lib/compiler"
	"github.com/vyPal/Lanec/lib/diag"
	"github.com/vyPal/Lanec/lib/emit"
	"github.com/vyPal/Lanec/lib/parser"
	"github.com/vyPal/Lanec/lib/project"
	"github.com/vyPal/Lanec/lib/vectorizer"
	"golang.org/x/sync/errgroup"
)

func init() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "The path to the project file",
			Aliases: []string{"c"},
		},
		&cli.IntFlag{
			Name:  "packed-width",
			Usage: "Lane count of packed functions, a power of two",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log every step of the build",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Print stack traces of internal compiler errors",
			Aliases: []string{"d"},
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "Number of files compiled in parallel",
			Value:   4,
		},
	}
	commands = append(commands, &cli.Command{
		Name:      "build",
		Usage:     "Compile source files or the current project",
		ArgsUsage: "[files...]",
		Category:  "compile",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file for a single source, output directory otherwise",
			},
			&cli.StringFlag{
				Name:  "emit",
				Usage: "Output format: ir (the lowered instruction streams) or llvm",
			},
			&cli.BoolFlag{
				Name:  "dump-ast",
				Usage: "Write the syntax tree of every file as JSON next to it",
			},
			&cli.BoolFlag{
				Name:    "no-cache",
				Aliases: []string{"n"},
				Usage:   "Disables caching",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Rebuild whenever a source file changes",
			},
		}, flags...),
		Action: build,
	}, &cli.Command{
		Name:      "check",
		Usage:     "Analyze source files and report diagnostics without compiling",
		ArgsUsage: "[files...]",
		Category:  "compile",
		Flags:     flags,
		Action:    check,
	})
}

// options is the effective configuration of one build.
type options struct {
	compiler project.CompilerConfig
	root     string
	output   string
	dumpAST  bool
	noCache  bool
	check    bool
	verbose  bool
	debug    bool
	jobs     int
}

// settings renders everything besides the source that changes the output.
func (o *options) settings() string {
	return fmt.Sprintf("width=%d emit=%s check=%t", o.compiler.PackedWidth, o.compiler.Emit, o.check)
}

func (o *options) logf(format string, args ...interface{}) {
	if o.verbose {
		color.New(color.Faint).Fprintf(os.Stderr, format+"\n", args...)
	}
}

// unit is one source file and everything compiling it produced.
type unit struct {
	path   string
	sink   *diag.Sink
	out    []byte
	cached bool
	err    error
}

func (u *unit) failed() bool { return u.err != nil || u.sink.Failed() }

// loadOptions reads the project file, if there is one, and applies the
// command line on top of it.
func loadOptions(c *cli.Context) (*options, []string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting current working directory")
	}
	var conf project.Config
	conf.CreateDefault(filepath.Base(cwd))
	root := cwd
	confPath := c.String("config")
	if confPath == "" {
		confPath = filepath.Join(cwd, project.FileName)
	}
	if _, err := os.Stat(confPath); err == nil {
		root = filepath.Dir(confPath)
		if conf, err = project.Load(root); err != nil {
			return nil, nil, err
		}
	} else if c.IsSet("config") {
		return nil, nil, errors.Errorf("no project file at %s", confPath)
	}

	o := &options{
		compiler: conf.Compiler,
		root:     root,
		verbose:  c.Bool("verbose"),
		debug:    c.Bool("debug"),
		jobs:     c.Int("jobs"),
	}
	if c.IsSet("packed-width") {
		o.compiler.PackedWidth = c.Int("packed-width")
	}
	if c.Command.Name == "build" {
		o.output = c.String("output")
		o.dumpAST = c.Bool("dump-ast")
		o.noCache = c.Bool("no-cache")
		if c.IsSet("emit") {
			o.compiler.Emit = c.String("emit")
		}
	}
	if o.compiler.Emit == "" {
		o.compiler.Emit = "llvm"
	}
	if err := conf.Validate(Version); err != nil {
		return nil, nil, err
	}
	if w := o.compiler.PackedWidth; w <= 0 || w&(w-1) != 0 {
		return nil, nil, errors.Errorf("packed width must be a power of two, got %d", w)
	}
	if o.jobs < 1 {
		o.jobs = 1
	}

	files := c.Args().Slice()
	if len(files) == 0 {
		if files, err = conf.Sources(root); err != nil {
			return nil, nil, err
		}
	}
	if len(files) == 0 {
		return nil, nil, errors.New("no source files")
	}
	return o, files, nil
}

func build(c *cli.Context) error {
	o, files, err := loadOptions(c)
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	if c.Bool("watch") {
		return watch(c.Context, o, files)
	}
	return report(o, runBuild(c.Context, o, files))
}

func check(c *cli.Context) error {
	o, files, err := loadOptions(c)
	if err != nil {
		return cli.Exit(color.RedString("Error: %s", err), 1)
	}
	o.check = true
	o.noCache = true
	return report(o, runBuild(c.Context, o, files))
}

// runBuild compiles every file. Files are independent compilation units
// and are compiled concurrently; each has its own diagnostics.
func runBuild(ctx context.Context, o *options, files []string) []*unit {
	units := make([]*unit, len(files))
	var bc *cache.Cache
	if !o.noCache {
		var err error
		if bc, err = cache.Open(o.root); err != nil {
			o.logf("cache disabled: %s", err)
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, f := range files {
		u := &unit{path: f, sink: diag.NewSink()}
		units[i] = u
		g.Go(func() error {
			compileFile(u, o, bc)
			return nil
		})
	}
	g.Wait()

	if !o.check {
		writeOutputs(o, units)
	}
	return units
}

func compileFile(u *unit, o *options, bc *cache.Cache) {
	src, err := os.ReadFile(u.path)
	if err != nil {
		u.err = errors.Wrapf(err, "reading %s", u.path)
		return
	}
	key := cache.Key(src, o.settings(), Version)
	if bc != nil {
		if out, ok, err := bc.Lookup(key); err == nil && ok {
			o.logf("%s: cached", u.path)
			u.out, u.cached = out, true
			return
		}
	}

	start := time.Now()
	u.out, u.err = compileSource(u.path, src, o, u.sink)
	o.logf("%s: compiled in %s", u.path, time.Since(start))
	if bc != nil && !u.failed() {
		if err := bc.Store(key, u.out); err != nil {
			o.logf("%s: %s", u.path, err)
		}
	}
}

// compileSource runs the whole pipeline on one file. Diagnostics go to
// sink; the error is only set for internal compiler errors and I/O.
func compileSource(name string, src []byte, o *options, sink *diag.Sink) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = errors.Errorf("%v", r)
			}
			out, err = nil, e
		}
	}()

	tree := parser.ParseBytes(name, src, sink)
	if tree == nil {
		return nil, nil
	}
	if o.dumpAST {
		if err := dumpAST(name, tree); err != nil {
			return nil, err
		}
	}

	o.logf("%s: analyzing", name)
	res := analyzer.Analyze(tree, sink)
	if !res.OK || o.check {
		return nil, nil
	}

	o.logf("%s: lowering", name)
	comp, ok := compiler.Compile(res, compiler.Options{PackedWidth: o.compiler.PackedWidth, Name: name}, sink)
	if !ok {
		return nil, nil
	}
	o.logf("%s: vectorizing %d functions", name, len(comp.Module.Functions))
	if _, ok := vectorizer.Vectorize(comp, sink); !ok {
		return nil, nil
	}

	var buf bytes.Buffer
	switch o.compiler.Emit {
	case "ir":
		buf.WriteString(comp.Module.String())
	default:
		if err := emit.Write(&buf, comp.Module); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func dumpAST(name string, tree interface{}) error {
	f, err := os.Create(strings.TrimSuffix(name, filepath.Ext(name)) + ".ast.json")
	if err != nil {
		return errors.Wrap(err, "creating AST dump file")
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(tree), "encoding AST")
}

func outputPath(o *options, u *unit, single bool) string {
	ext := ".ll"
	if o.compiler.Emit == "ir" {
		ext = ".lir"
	}
	base := strings.TrimSuffix(filepath.Base(u.path), filepath.Ext(u.path)) + ext
	switch {
	case o.output == "":
		return filepath.Join(filepath.Dir(u.path), base)
	case single:
		return o.output
	}
	return filepath.Join(o.output, base)
}

func writeOutputs(o *options, units []*unit) {
	for _, u := range units {
		if u.failed() {
			continue
		}
		p := outputPath(o, u, len(units) == 1)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			u.err = errors.Wrap(err, "creating output directory")
			continue
		}
		if err := os.WriteFile(p, u.out, 0644); err != nil {
			u.err = errors.Wrapf(err, "writing %s", p)
			continue
		}
		o.logf("%s -> %s", u.path, p)
	}
}

// printUnits prints every diagnostic in file order and returns how many
// units failed.
func printUnits(w io.Writer, o *options, units []*unit) int {
	failed := 0
	for _, u := range units {
		u.sink.Print(w)
		if u.err != nil {
			if o.debug {
				fmt.Fprintf(w, "%s: %+v\n", u.path, u.err)
			} else {
				fmt.Fprintf(w, "%s: %s\n", u.path, color.RedString("%s", u.err))
			}
		}
		if u.failed() {
			failed++
		}
	}
	return failed
}

func report(o *options, units []*unit) error {
	failed := printUnits(os.Stderr, o, units)
	if failed > 0 {
		return cli.Exit(color.RedString("%d of %d files failed", failed, len(units)), 1)
	}
	if !o.check {
		color.Cyan("Built %d files", len(units))
	}
	return nil
}

// watch rebuilds whenever one of the files is written. Editors often emit
// several events per save, so changes are collected for a short moment.
func watch(ctx context.Context, o *options, files []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return cli.Exit(color.RedString("Error starting watcher: %s", err), 1)
	}
	defer w.Close()

	watched := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return cli.Exit(color.RedString("Error: %s", err), 1)
		}
		watched[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return cli.Exit(color.RedString("Error watching %s: %s", f, err), 1)
		}
	}

	var mu sync.Mutex
	rebuild := func() {
		mu.Lock()
		defer mu.Unlock()
		printUnits(os.Stderr, o, runBuild(ctx, o, files))
		color.Cyan("Watching %d files", len(files))
	}
	rebuild()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if abs, err := filepath.Abs(ev.Name); err != nil || !watched[abs] {
				continue
			}
			o.logf("%s changed", ev.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, rebuild)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, color.RedString("watch: %s", err))
		}
	}
}
