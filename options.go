package tilepack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTransparentColor = "#000000"
	defaultFolder           = "generated"
	dateLayout              = "2006-01-02-15-04-05"
)

var colorTag = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Options configures a run. Zero values are replaced with defaults by New.
type Options struct {
	// RootFolder is where tileset images are looked up by default.
	RootFolder string `yaml:"root_folder"`
	// GeneratedFolder receives every output file. Defaults to "generated"
	// under RootFolder.
	GeneratedFolder string `yaml:"generated_folder"`
	// Name is the base name of the output files.
	Name string `yaml:"name"`
	// OriginalMapName is folded into the default Name.
	OriginalMapName string `yaml:"original_map_name"`
	// TransparentColor is written as the transparent color of the merged
	// tileset.
	TransparentColor string `yaml:"transparent_color"`
	// Factors lists the integer scale factors to produce. Factor 1 is the
	// unscaled atlas which is always written.
	Factors []int `yaml:"factors"`
	// Images maps a tileset image name to the file holding it, for images
	// that do not live under RootFolder.
	Images map[string]string `yaml:"images"`
	// Workers bounds the number of tiles extracted concurrently.
	Workers int `yaml:"workers"`
}

// LoadConfig reads Options from a YAML file.
func LoadConfig(file string) (Options, error) {
	var opts Options

	b, err := os.ReadFile(file)
	if err != nil {
		return opts, newError(ConfigurationError, "load config", err)
	}

	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, newError(ConfigurationError, "load config", fmt.Errorf("%s: %w", file, err))
	}

	// Relative paths in the file are relative to the file itself
	dir := filepath.Dir(file)
	for _, p := range []*string{&opts.RootFolder, &opts.GeneratedFolder} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	for name, p := range opts.Images {
		if !filepath.IsAbs(p) {
			opts.Images[name] = filepath.Join(dir, p)
		}
	}

	return opts, nil
}

func (o *Options) setDefaults(now time.Time) error {
	if o.RootFolder == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return newError(ConfigurationError, "options", err)
		}
		o.RootFolder = cwd
	}
	if o.GeneratedFolder == "" {
		o.GeneratedFolder = filepath.Join(o.RootFolder, defaultFolder)
	}
	if o.Name == "" {
		o.Name = "optimized-map"
		if o.OriginalMapName != "" {
			o.Name += "-" + strings.ToLower(o.OriginalMapName)
		}
		o.Name += "-" + now.Format(dateLayout)
	}
	if o.TransparentColor == "" {
		o.TransparentColor = defaultTransparentColor
	}
	if len(o.Factors) == 0 {
		o.Factors = []int{1}
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Validate checks the options, returning a ConfigurationError describing
// the first problem found.
func (o *Options) Validate() error {
	if strings.ContainsAny(o.Name, `/\`) {
		return newError(ConfigurationError, "options", fmt.Errorf("%w: %q", errBadName, o.Name))
	}
	if o.TransparentColor != "" && !colorTag.MatchString(o.TransparentColor) {
		return newError(ConfigurationError, "options", fmt.Errorf("%w: %q", errBadColor, o.TransparentColor))
	}
	for _, f := range o.Factors {
		if f < 1 {
			return newError(ConfigurationError, "options", fmt.Errorf("%w: %d", errBadFactor, f))
		}
	}
	if o.Workers < 0 {
		return newError(ConfigurationError, "options", errBadWorkers)
	}
	return nil
}

// scaleFactors returns the distinct factors above 1 in the order given.
func (o *Options) scaleFactors() []int {
	seen := make(map[int]struct{})
	var factors []int
	for _, f := range o.Factors {
		if _, ok := seen[f]; ok || f <= 1 {
			continue
		}
		seen[f] = struct{}{}
		factors = append(factors, f)
	}
	return factors
}
