// Package analyzer defines the Recording interface the core consumes
// and the plugin registry that resolves a model_name to a concrete
// analyzer. Per the REDESIGN FLAGS, dynamic on-disk module loading
// (the original's importlib-based `load_name_from_module`) is replaced
// by a build-time-linked registry: Go has no safe, portable equivalent
// to Python's dynamic import for this purpose, and the spec explicitly
// sanctions dropping the dynamic path when plugins are linked at build
// time.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Detection is one row of a Recording's output. It is intentionally
// opaque beyond being a mapping from field name to value — the core
// never interprets detection contents, only field names for CSV
// headers (§4.5). A Go map has no insertion order to preserve, so
// results.Write derives the CSV column order by sorting the first
// detection's keys instead of keeping the order a plugin's composite
// literal happened to list them in; see results.fieldOrder.
type Detection map[string]any

// Recording is the object a WorkerLoop mutates once per input file.
// Path and Analyzed are set by the handler before Analyze runs;
// Detections is populated by Analyze.
type Recording interface {
	Path() string
	SetPath(path string)
	Analyzed() bool
	Analyze() error
	Detections() []Detection
}

// Factory constructs a Recording for one model_name. It MUST be
// invoked inside the worker process — never the supervisor — because
// model artifacts may hold non-shareable native handles (§4.4).
type Factory func(params FactoryParams) (Recording, error)

// FactoryParams bundles everything RecordingFactory needs: the
// resolved model directory, plus the four opaque config blocks.
type FactoryParams struct {
	ModelDir         string
	ModelName        string
	Preprocessor     map[string]any
	Model            map[string]any
	Recording        map[string]any
	SpeciesPredictor map[string]any
}

// ModelPath is model_dir/model_name, the directory a Factory reads its
// on-disk artifacts from.
func (p FactoryParams) ModelPath() string {
	return filepath.Join(p.ModelDir, p.ModelName)
}

// WantsSpeciesPredictor reports whether date, lat, and lon are all
// present and non-nil in the recording config, the precondition for
// constructing a SpeciesPredictor (§4.4 step 3).
func (p FactoryParams) WantsSpeciesPredictor() bool {
	for _, key := range []string{"date", "lat", "lon"} {
		v, ok := p.Recording[key]
		if !ok || v == nil {
			return false
		}
	}
	return true
}

// SpeciesPredictorConstructionError is raised when a SpeciesPredictor
// is wanted but the model directory lacks the species_presence_model
// artifact its construction requires.
type SpeciesPredictorConstructionError struct {
	ModelPath string
}

func (e *SpeciesPredictorConstructionError) Error() string {
	return fmt.Sprintf("species range predictor creation failed; does the model at %s provide a 'species_presence_model' file?", e.ModelPath)
}

// registry maps model_name to the Factory that builds its Recording.
var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a Factory under name. Plugin packages call this from
// an init() function, giving the registry build-time-linked contents
// rather than anything resolved from disk at runtime.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup resolves name to its Factory. ok is false if no plugin
// registered that name at build time.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered model name, for `faunanet doctor` and
// CLI help text.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Build resolves params.ModelName in the registry and invokes its
// Factory, after confirming the model directory contract (§6): a
// species_presence_model artifact must exist whenever a
// SpeciesPredictor is requested.
func Build(params FactoryParams) (Recording, error) {
	factory, ok := Lookup(params.ModelName)
	if !ok {
		return nil, fmt.Errorf("analyzer: no plugin registered for model_name %q", params.ModelName)
	}
	if params.WantsSpeciesPredictor() {
		presencePath := filepath.Join(params.ModelPath(), "species_presence_model")
		if _, err := os.Stat(presencePath); err != nil {
			return nil, &SpeciesPredictorConstructionError{ModelPath: params.ModelPath()}
		}
	}
	return factory(params)
}
