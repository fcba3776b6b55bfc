package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/vyPal/Lanec/util"
	"gopkg.in/yaml.v3"
)

const (
	FileName  = "lanec.yaml"
	SourceExt = ".ln"

	DefaultPackedWidth = 4
)

type Config struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Version     string         `yaml:"version"`
	Main        string         `yaml:"main"`
	SourceDir   string         `yaml:"source"`
	Author      string         `yaml:"author,omitempty"`
	License     string         `yaml:"license,omitempty"`
	Compiler    CompilerConfig `yaml:"compiler"`
}

type CompilerConfig struct {
	// PackedWidth is the lane count of packed functions and the rounding
	// unit of simd containers.
	PackedWidth       int    `yaml:"packedWidth"`
	Target            string `yaml:"target,omitempty"`
	Emit              string `yaml:"emit,omitempty"`
	OptimizationLevel int    `yaml:"optimize,omitempty"`
	// Requires is a semver constraint on the compiler version.
	Requires string `yaml:"requires,omitempty"`
}

func (c *Config) CreateDefault(name string) {
	if name == "." || name == "" {
		name = "NewProject"
	}
	c.Name = name
	c.Description = "A new Lane project"
	c.Version = "1.0.0"
	c.Main = "src/main" + SourceExt
	c.SourceDir = "src"
	c.Author = "Anonymous"
	c.License = "MIT"
	c.Compiler = CompilerConfig{PackedWidth: DefaultPackedWidth, Emit: "llvm"}
}

// Validate checks the compiler section against the running compiler.
func (c *Config) Validate(compilerVersion string) error {
	w := c.Compiler.PackedWidth
	if w <= 0 || w&(w-1) != 0 {
		return errors.Errorf("%s: packedWidth must be a power of two, got %d", FileName, w)
	}
	switch c.Compiler.Emit {
	case "", "ir", "llvm":
	default:
		return errors.Errorf("%s: emit must be ir or llvm, got %q", FileName, c.Compiler.Emit)
	}
	if c.Compiler.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.Compiler.Requires)
	if err != nil {
		return errors.Wrapf(err, "%s: requires", FileName)
	}
	v, err := semver.NewVersion(compilerVersion)
	if err != nil {
		return errors.Wrapf(err, "compiler version %s", compilerVersion)
	}
	if !constraint.Check(v) {
		return errors.Errorf("%s requires compiler %s, this is %s", c.Name, c.Compiler.Requires, v)
	}
	return nil
}

func (c *Config) Save(filepath string, overwrite bool) error {
	if _, err := os.Stat(filepath); !os.IsNotExist(err) {
		if !overwrite && !util.PromptYN(filepath+" already exists. Overwrite?", false) {
			return nil
		}
	}

	yml, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	return errors.Wrapf(os.WriteFile(filepath, yml, 0644), "writing %s", filepath)
}

// Load reads the project file of dir. Missing compiler settings get their
// defaults.
func Load(dir string) (Config, error) {
	var conf Config

	file, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return Config{}, errors.Wrap(err, "opening project file")
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", filepath.Join(dir, FileName))
	}
	if conf.Compiler.PackedWidth == 0 {
		conf.Compiler.PackedWidth = DefaultPackedWidth
	}
	if conf.SourceDir == "" {
		conf.SourceDir = "."
	}
	return conf, nil
}

// Sources lists the source files under the project's source directory,
// sorted so builds see them in a stable order.
func (c *Config) Sources(dir string) ([]string, error) {
	root := filepath.Join(dir, c.SourceDir)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing sources in %s", root)
	}
	sort.Strings(files)
	return files, nil
}
