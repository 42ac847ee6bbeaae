package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodgit/tilepack"
	"github.com/bodgit/tilepack/catalog"
	"github.com/bodgit/tilepack/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultCatalog = "tilepack.db"
	defaultListen  = ":3000"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var writers []io.Writer
	if c.Bool("verbose") {
		writers = append(writers, os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}
	if file := c.String("log-file"); file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
		})
	}
	if len(writers) > 0 {
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger
}

// options builds the run options from the config file, if any, overridden
// by whatever flags were given.
func options(c *cli.Context) (tilepack.Options, error) {
	var opts tilepack.Options
	if file := c.String("config"); file != "" {
		var err error
		if opts, err = tilepack.LoadConfig(file); err != nil {
			return opts, err
		}
	}

	if c.IsSet("images") {
		opts.RootFolder = c.String("images")
	}
	if c.IsSet("out") {
		opts.GeneratedFolder = c.String("out")
	}
	if c.IsSet("name") {
		opts.Name = c.String("name")
	}
	if c.IsSet("transparent-color") {
		opts.TransparentColor = c.String("transparent-color")
	}
	if c.IsSet("factor") {
		opts.Factors = append([]int{1}, c.IntSlice("factor")...)
	}
	if c.IsSet("workers") {
		opts.Workers = c.Int("workers")
	}
	for _, image := range c.StringSlice("image") {
		name, file, ok := strings.Cut(image, "=")
		if !ok || name == "" || file == "" {
			return opts, fmt.Errorf("image %q: expected NAME=FILE", image)
		}
		if opts.Images == nil {
			opts.Images = make(map[string]string)
		}
		opts.Images[name] = file
	}

	return opts, nil
}

// source opens the catalog named by the flag, if any. The returned function
// closes it.
func source(c *cli.Context) (tilepack.ImageSource, func(), error) {
	file := c.String("catalog")
	if file == "" {
		return nil, func() {}, nil
	}
	cat, err := catalog.New(file)
	if err != nil {
		return nil, nil, err
	}
	return cat, func() { cat.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func main() {
	app := cli.NewApp()

	app.Name = "tilepack"
	app.Usage = "Tiled map tile atlas optimizer"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:    "log-file",
			EnvVars: []string{"TILEPACK_LOG_FILE"},
			Usage:   "also log to `FILE`, rotating it as it grows",
		},
	}

	runFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"TILEPACK_CONFIG"},
			Usage:   "read options from YAML `FILE`",
		},
		&cli.StringFlag{
			Name:    "catalog",
			EnvVars: []string{"TILEPACK_CATALOG"},
			Usage:   "also look tileset images up in catalog `FILE`",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			EnvVars: []string{"TILEPACK_OUT"},
			Usage:   "write output to `DIRECTORY`",
		},
		&cli.StringFlag{
			Name:    "transparent-color",
			EnvVars: []string{"TILEPACK_TRANSPARENT_COLOR"},
			Usage:   "transparent `COLOR` of the generated tileset",
		},
		&cli.IntSliceFlag{
			Name:    "factor",
			Aliases: []string{"f"},
			Usage:   "also write the atlas enlarged by `N`, may be repeated",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"TILEPACK_WORKERS"},
			Usage:   "extract at most `N` tiles at once",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "optimize",
			Usage:       "Repack the tiles used by a map into a single atlas",
			Description: "",
			ArgsUsage:   "MAP",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    "images",
					Aliases: []string{"i"},
					Usage:   "look tileset images up in `DIRECTORY`, defaults to the map directory",
				},
				&cli.StringSliceFlag{
					Name:  "image",
					Usage: "read the tileset image `NAME=FILE` from FILE, may be repeated",
				},
				&cli.StringFlag{
					Name:    "name",
					Aliases: []string{"n"},
					Usage:   "base `NAME` of the output files",
				},
			}, runFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)
				file := c.Args().First()

				opts, err := options(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				if opts.RootFolder == "" {
					opts.RootFolder = filepath.Dir(file)
				}
				if opts.OriginalMapName == "" {
					opts.OriginalMapName = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}

				src, closeSource, err := source(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closeSource()

				o, err := tilepack.New(opts, src, logger)
				if err != nil {
					return cli.Exit(err, 1)
				}

				ctx, cancel := signalContext()
				defer cancel()

				out, err := o.GenerateFile(ctx, file)
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, d := range out.Diagnostics {
					fmt.Fprintln(os.Stderr, "warning:", d)
				}
				fmt.Println(out.Image)
				fmt.Println(out.Map)
				for _, s := range out.Scaled {
					fmt.Println(s.Image)
					fmt.Println(s.Map)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Optimize every map found below a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags:       runFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := options(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				src, closeSource, err := source(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closeSource()

				ctx, cancel := signalContext()
				defer cancel()

				s := &tilepack.Scanner{
					Options: opts,
					Source:  src,
					Logger:  newLogger(c),
				}
				if err := s.Scan(ctx, c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Usage:       "Import tileset images into a catalog",
			Description: "",
			ArgsUsage:   "DIRECTORY|FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "catalog",
					EnvVars: []string{"TILEPACK_CATALOG"},
					Value:   filepath.Join(cwd, defaultCatalog),
					Usage:   "path to catalog",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				cat, err := catalog.New(c.String("catalog"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				for _, arg := range c.Args().Slice() {
					info, err := os.Stat(arg)
					if err != nil {
						return cli.Exit(err, 1)
					}

					if !info.IsDir() {
						if err := cat.AddFile(arg); err != nil {
							return cli.Exit(err, 1)
						}
						logger.WithField("file", arg).Info("Imported image")
						continue
					}

					n, err := cat.ImportDir(arg)
					if err != nil {
						return cli.Exit(err, 1)
					}
					logger.WithFields(logrus.Fields{
						"dir":    arg,
						"images": n,
					}).Info("Imported images")
				}

				return nil
			},
		},
		{
			Name:        "serve",
			Usage:       "Serve the optimizer over HTTP",
			Description: "",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    "listen",
					Aliases: []string{"l"},
					EnvVars: []string{"TILEPACK_LISTEN"},
					Value:   defaultListen,
					Usage:   "listen on `ADDRESS`",
				},
			}, runFlags...),
			Action: func(c *cli.Context) error {
				opts, err := options(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				folder := opts.GeneratedFolder
				if folder == "" {
					folder = filepath.Join(cwd, "generated")
				}

				src, closeSource, err := source(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closeSource()

				s := server.New(folder, opts, newLogger(c))
				s.Source = src
				if err := s.Run(c.String("listen")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
