/*
Package server exposes the optimizer over HTTP.

A map and its tileset images are uploaded together as a multipart form to
POST /optimize-map. Each request is processed in its own folder and the
response describes the files produced.
*/
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/tilepack"
	"github.com/bodgit/tilepack/tiled"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxMemory = 32 << 20

var (
	errNoFiles  = errors.New("no files uploaded")
	errNoMap    = errors.New("missing JSON map file or invalid content")
	errTwoMaps  = errors.New("more than one JSON map file uploaded")
	errBadScale = errors.New("factor must be a positive integer")
)

// Server handles optimize requests.
type Server struct {
	// Folder is the parent of every per-request output folder.
	Folder string
	// Options is the template applied to every request.
	Options tilepack.Options
	// Source, if set, is consulted for images missing from an upload.
	Source tilepack.ImageSource
	Logger logrus.FieldLogger

	engine *gin.Engine
}

// New returns a Server writing below folder. A nil logger discards
// everything.
func New(folder string, opts tilepack.Options, logger logrus.FieldLogger) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	s := &Server{
		Folder:  folder,
		Options: opts,
		Logger:  logger,
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.logRequests)
	s.engine.MaxMultipartMemory = maxMemory
	s.engine.POST("/optimize-map", s.optimize)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr and serves requests until it fails.
func (s *Server) Run(addr string) error {
	s.Logger.WithField("addr", addr).Info("Listening")
	return s.engine.Run(addr)
}

func (s *Server) logRequests(c *gin.Context) {
	c.Next()
	s.Logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"status": c.Writer.Status(),
	}).Info("Request")
}

type response struct {
	Message string           `json:"message"`
	Error   string           `json:"error,omitempty"`
	Result  *tilepack.Output `json:"result,omitempty"`
}

func (s *Server) fail(c *gin.Context, status int, message string, err error) {
	s.Logger.WithError(err).Warn(message)
	c.JSON(status, response{Message: message, Error: err.Error()})
}

func (s *Server) optimize(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Error reading upload", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		s.fail(c, http.StatusBadRequest, "Error reading upload", errNoFiles)
		return
	}

	var m *tiled.Map
	var mapName string
	images := make(tilepack.MemorySource)

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.fail(c, http.StatusBadRequest, "Error reading upload", err)
			return
		}
		b, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.fail(c, http.StatusBadRequest, "Error reading upload", err)
			return
		}

		name := filepath.Base(fh.Filename)
		if strings.EqualFold(filepath.Ext(name), ".json") {
			if m != nil {
				s.fail(c, http.StatusBadRequest, "Error reading upload", errTwoMaps)
				return
			}
			if m, err = tiled.Decode(bytes.NewReader(b)); err != nil {
				s.fail(c, http.StatusBadRequest, "Error reading upload", errNoMap)
				return
			}
			mapName = strings.TrimSuffix(name, filepath.Ext(name))
			continue
		}
		images[name] = b
	}

	if m == nil {
		s.fail(c, http.StatusBadRequest, "Error reading upload", errNoMap)
		return
	}

	opts := s.Options
	opts.RootFolder = filepath.Join(s.Folder, uuid.NewString())
	opts.GeneratedFolder = opts.RootFolder
	opts.OriginalMapName = mapName
	if name := c.PostForm("name"); name != "" {
		opts.Name = name
	}
	if factor := c.PostForm("factor"); factor != "" {
		f, err := strconv.Atoi(factor)
		if err != nil || f < 1 {
			s.fail(c, http.StatusBadRequest, "Error reading upload", errBadScale)
			return
		}
		opts.Factors = []int{1, f}
	}

	var source tilepack.ImageSource = images
	if s.Source != nil {
		source = tilepack.Sources{images, s.Source}
	}

	o, err := tilepack.New(opts, source, s.Logger)
	if err != nil {
		s.fail(c, statusFor(err), "Error processing request", err)
		return
	}

	out, err := o.Generate(c.Request.Context(), m)
	if err != nil {
		s.fail(c, statusFor(err), "Error processing request", err)
		return
	}

	c.JSON(http.StatusOK, response{Message: "Map optimized successfully", Result: out})
}

func statusFor(err error) int {
	for _, kind := range []tilepack.Kind{tilepack.ConfigurationError, tilepack.DataFormatError, tilepack.MissingMappingError} {
		if tilepack.IsKind(err, kind) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
