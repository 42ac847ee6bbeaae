package tilepack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/tilepack/tiled"
	"github.com/sirupsen/logrus"
)

const scanWorkers = 4

// Scanner optimizes every Tiled map found under a directory.
type Scanner struct {
	// Options is the template for each map. RootFolder is replaced with
	// the directory holding the map; when GeneratedFolder is set the
	// outputs mirror the scanned tree beneath it, otherwise they go to a
	// "generated" folder next to each map. Name is derived from each map.
	Options Options
	Source  ImageSource
	Logger  logrus.FieldLogger
}

func (s *Scanner) findMaps(ctx context.Context, base, generated string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore hidden files and directories, along with our own output
			if info.Name()[0] == '.' && file != base || info.IsDir() && (info.Name() == defaultFolder || file == generated) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(file), ".json") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (s *Scanner) mapWorker(ctx context.Context, base string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}

			logger := s.Logger.WithField("map", file)

			m, err := readMap(file)
			if err != nil {
				logger.Debug("Skipping file that is not a Tiled map")
				continue
			}

			opts := s.Options
			opts.RootFolder = filepath.Dir(file)
			opts.OriginalMapName = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			opts.Name = ""
			if s.Options.GeneratedFolder != "" {
				rel, err := filepath.Rel(base, opts.RootFolder)
				if err != nil {
					errc <- err
					return
				}
				opts.GeneratedFolder = filepath.Join(s.Options.GeneratedFolder, rel)
			}

			o, err := New(opts, s.Source, logger)
			if err != nil {
				errc <- err
				return
			}

			if _, err := o.Generate(ctx, m); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// readMap decodes file, rejecting JSON documents that have no layers or no
// tilesets.
func readMap(file string) (*tiled.Map, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tiled.Decode(f)
	if err != nil {
		return nil, err
	}
	if len(m.Layers) == 0 || len(m.Tilesets) == 0 {
		return nil, errors.New("not a map")
	}
	return m, nil
}

// waitForPipeline returns the first error from any stage once every stage
// has finished. The first error cancels the others so they wind down
// promptly.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and optimizes every map found, stopping at the first
// failure. It returns once every worker has stopped.
func (s *Scanner) Scan(ctx context.Context, path string) error {
	if s.Logger == nil {
		s.Logger = discardLogger()
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return newError(ConfigurationError, "scan", err)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	var generated string
	if s.Options.GeneratedFolder != "" {
		if generated, err = filepath.Abs(s.Options.GeneratedFolder); err != nil {
			return newError(ConfigurationError, "scan", err)
		}
	}

	maps, errc, err := s.findMaps(ctx, dir, generated)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := s.mapWorker(ctx, dir, maps)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
