package tilepack

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	opts := Options{RootFolder: "/maps", OriginalMapName: "Dungeon"}
	require.NoError(t, opts.setDefaults(now))

	assert.Equal(t, Options{
		RootFolder:       "/maps",
		GeneratedFolder:  filepath.Join("/maps", "generated"),
		Name:             "optimized-map-dungeon-2024-03-05-14-07-09",
		OriginalMapName:  "Dungeon",
		TransparentColor: "#000000",
		Factors:          []int{1},
		Workers:          runtime.GOMAXPROCS(0),
	}, opts)

	opts = Options{}
	require.NoError(t, opts.setDefaults(now))
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, opts.RootFolder)
	assert.Equal(t, "optimized-map-2024-03-05-14-07-09", opts.Name)

	opts = Options{Name: "keep", GeneratedFolder: "/out", Factors: []int{2}}
	require.NoError(t, opts.setDefaults(now))
	assert.Equal(t, "keep", opts.Name)
	assert.Equal(t, "/out", opts.GeneratedFolder)
	assert.Equal(t, []int{2}, opts.Factors)
}

func TestValidate(t *testing.T) {
	tables := []struct {
		name string
		opts Options
		err  error
	}{
		{"zero", Options{}, nil},
		{"valid", Options{Name: "atlas", TransparentColor: "#FF00ff", Factors: []int{1, 2, 4}, Workers: 3}, nil},
		{"alpha color", Options{TransparentColor: "#80ff00ff"}, nil},
		{"separator", Options{Name: "a/b"}, errBadName},
		{"backslash", Options{Name: `a\b`}, errBadName},
		{"short color", Options{TransparentColor: "#fff"}, errBadColor},
		{"bad color", Options{TransparentColor: "red"}, errBadColor},
		{"zero factor", Options{Factors: []int{1, 0}}, errBadFactor},
		{"negative factor", Options{Factors: []int{-2}}, errBadFactor},
		{"negative workers", Options{Workers: -1}, errBadWorkers},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			err := table.opts.Validate()
			if table.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, table.err), "got %v", err)
			assert.True(t, IsKind(err, ConfigurationError))
		})
	}
}

func TestNewRejectsOptions(t *testing.T) {
	_, err := New(Options{Factors: []int{0}}, nil, nil)
	assert.True(t, IsKind(err, ConfigurationError))
}

func TestScaleFactors(t *testing.T) {
	opts := Options{Factors: []int{1, 4, 2, 4, 1, 3}}
	assert.Equal(t, []int{4, 2, 3}, opts.scaleFactors())

	opts = Options{Factors: []int{1}}
	assert.Empty(t, opts.scaleFactors())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tilepack.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
root_folder: maps
generated_folder: /tmp/out
name: atlas
transparent_color: "#ff00ff"
factors: [1, 2]
workers: 2
images:
  terrain.png: art/terrain.png
  props.png: /shared/props.png
`), 0644))

	opts, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, Options{
		RootFolder:       filepath.Join(dir, "maps"),
		GeneratedFolder:  "/tmp/out",
		Name:             "atlas",
		TransparentColor: "#ff00ff",
		Factors:          []int{1, 2},
		Images: map[string]string{
			"terrain.png": filepath.Join(dir, "art", "terrain.png"),
			"props.png":   "/shared/props.png",
		},
		Workers: 2,
	}, opts)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.True(t, IsKind(err, ConfigurationError))

	require.NoError(t, os.WriteFile(file, []byte("factors: {"), 0644))
	_, err = LoadConfig(file)
	assert.True(t, IsKind(err, ConfigurationError))
}
