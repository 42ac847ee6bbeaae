/*
Package tilepack repacks the tiles a Tiled map actually uses into a single
compact atlas and rewrites the map to match.

Every tile referenced by a tile layer, an animation or a wangset is cut out
of its source tileset image exactly once, the tiles are laid out in a roughly
square grid and the map is rewritten to use a single tileset pointing at the
new image. Optionally the atlas is also enlarged by integer factors using
nearest neighbour sampling so pixel art stays sharp.
*/
package tilepack

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bodgit/tilepack/tiled"
	"github.com/sirupsen/logrus"
)

// Optimizer repacks maps according to a fixed set of options.
type Optimizer struct {
	opts   Options
	source ImageSource
	logger logrus.FieldLogger
}

// New validates opts and returns an Optimizer. Images are read from source,
// falling back to opts.Images and then opts.RootFolder. A nil source reads
// only from those. A nil logger discards everything.
func New(opts Options, source ImageSource, logger logrus.FieldLogger) (*Optimizer, error) {
	if logger == nil {
		logger = discardLogger()
	}

	if err := opts.setDefaults(time.Now()); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var sources Sources
	if source != nil {
		sources = append(sources, source)
	}
	if len(opts.Images) > 0 {
		sources = append(sources, FileMap(opts.Images))
	}
	sources = append(sources, DirSource(opts.RootFolder))

	return &Optimizer{
		opts:   opts,
		source: sources,
		logger: logger.WithField("name", opts.Name),
	}, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Options returns the options after defaults have been applied.
func (o *Optimizer) Options() Options {
	return o.opts
}

// session holds the state of a single run.
type session struct {
	opts   *Options
	source ImageSource
	logger logrus.FieldLogger

	m          *tiled.Map
	tileWidth  int
	tileHeight int

	index       *Index
	layout      Layout
	images      map[*Tileset]image.Image
	positions   map[uint32]int
	composites  []composite
	diagnostics []*Error
}

// GenerateFile reads a map from file and repacks it.
func (o *Optimizer) GenerateFile(ctx context.Context, file string) (*Output, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, newError(ConfigurationError, "open map", err)
	}
	defer f.Close()

	m, err := tiled.Decode(f)
	if err != nil {
		return nil, newError(DataFormatError, "decode map", fmt.Errorf("%s: %w", file, err))
	}

	return o.Generate(ctx, m)
}

// Generate repacks m, writing the atlas, the rewritten map and any scaled
// variants to the generated folder. Either every file is written or, on
// error, none are left behind. The map passed in is not modified.
func (o *Optimizer) Generate(ctx context.Context, m *tiled.Map) (*Output, error) {
	s := &session{
		opts:       &o.opts,
		source:     o.source,
		logger:     o.logger,
		m:          m,
		tileWidth:  m.TileWidth,
		tileHeight: m.TileHeight,
	}

	if s.tileWidth <= 0 || s.tileHeight <= 0 {
		return nil, newError(DataFormatError, "index", errNoTileSize)
	}

	var err error
	if s.index, err = BuildIndex(m); err != nil {
		return nil, err
	}
	if s.index.Len() == 0 {
		return nil, newError(DataFormatError, "index", errNoTiles)
	}

	s.layout = PlanLayout(s.index.Len(), s.tileWidth, s.tileHeight, s.index.MaxSpacing)

	s.logger.WithFields(logrus.Fields{
		"tiles":    s.index.Len(),
		"tilesets": s.index.Tilesets.Len(),
		"columns":  s.layout.Columns,
		"rows":     s.layout.Rows,
	}).Debug("Planned atlas")

	if err := s.loadImages(); err != nil {
		return nil, err
	}
	if err := s.extract(ctx); err != nil {
		return nil, err
	}
	atlas := s.compose()

	rewritten, err := s.rewrite()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(o.opts.GeneratedFolder, 0755); err != nil {
		return nil, newError(IOError, "create folder", err)
	}

	out := &Output{
		Image:       filepath.Join(o.opts.GeneratedFolder, o.opts.Name+".png"),
		Map:         filepath.Join(o.opts.GeneratedFolder, o.opts.Name+".json"),
		JSON:        rewritten,
		Diagnostics: s.diagnostics,
	}

	p := new(publisher)
	if err := o.publish(ctx, p, out, atlas); err != nil {
		p.discard()
		return nil, err
	}

	o.logger.WithField("path", out.Image).Info("Map optimized")

	return out, nil
}

func (o *Optimizer) publish(ctx context.Context, p *publisher, out *Output, atlas image.Image) error {
	if err := p.writeImage(out.Image, atlas); err != nil {
		return err
	}
	if err := p.writeMap(out.Map, out.JSON); err != nil {
		return err
	}

	for _, factor := range o.opts.scaleFactors() {
		if err := ctx.Err(); err != nil {
			return newError(IOError, "publish", err)
		}

		name := o.opts.Name + "-x" + strconv.Itoa(factor)
		scaled := Scaled{
			Factor: factor,
			Image:  filepath.Join(o.opts.GeneratedFolder, name+".png"),
			Map:    filepath.Join(o.opts.GeneratedFolder, name+".json"),
		}

		var err error
		if scaled.JSON, err = ScaleMap(out.JSON, factor, name+".png"); err != nil {
			return newError(DataFormatError, "scale map", err)
		}
		if err := p.writeImage(scaled.Image, ScaleImage(atlas, factor)); err != nil {
			return err
		}
		if err := p.writeMap(scaled.Map, scaled.JSON); err != nil {
			return err
		}

		o.logger.WithFields(logrus.Fields{
			"factor": factor,
			"path":   scaled.Image,
		}).Debug("Wrote scaled atlas")

		out.Scaled = append(out.Scaled, scaled)
	}

	return nil
}
