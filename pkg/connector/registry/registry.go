// Package registry maps connector names to factories so the rates pipeline
// can pick its source and destination from configuration. Connectors
// register themselves from init functions; importing a connector package for
// its side effects is enough to make it available.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/core"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/logger"
	"github.com/ratepipe/ratepipe/pkg/models"
	"go.uber.org/zap"
)

// RateSource extracts raw rate records.
type RateSource = core.Extractor[models.RateRecord]

// RateDestination persists normalized rate records.
type RateDestination = core.Loader[models.NormalizedRateRecord]

// SourceFactory creates a configured rate source.
type SourceFactory func(cfg *config.Config) (RateSource, error)

// DestinationFactory creates a configured rate destination.
type DestinationFactory func(cfg *config.Config) (RateDestination, error)

// ConnectorInfo describes a registered connector for listing.
type ConnectorInfo struct {
	Name        string
	Type        core.ConnectorType
	Description string
}

// Registry manages connector registration and instantiation
type Registry struct {
	sources      map[string]SourceFactory
	destinations map[string]DestinationFactory
	info         map[core.ConnectorType]map[string]*ConnectorInfo
	mu           sync.RWMutex
	logger       *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]SourceFactory),
		destinations: make(map[string]DestinationFactory),
		info: map[core.ConnectorType]map[string]*ConnectorInfo{
			core.ConnectorTypeSource:      {},
			core.ConnectorTypeDestination: {},
		},
		logger: logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(name, description string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("source connector %s already registered", name))
	}

	r.sources[name] = factory
	r.info[core.ConnectorTypeSource][name] = &ConnectorInfo{Name: name, Type: core.ConnectorTypeSource, Description: description}
	r.logger.Debug("source connector registered", zap.String("name", name))
	return nil
}

// RegisterDestination registers a destination connector factory
func (r *Registry) RegisterDestination(name, description string, factory DestinationFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.destinations[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("destination connector %s already registered", name))
	}

	r.destinations[name] = factory
	r.info[core.ConnectorTypeDestination][name] = &ConnectorInfo{Name: name, Type: core.ConnectorTypeDestination, Description: description}
	r.logger.Debug("destination connector registered", zap.String("name", name))
	return nil
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(name string, cfg *config.Config) (RateSource, error) {
	r.mu.RLock()
	factory, exists := r.sources[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("source connector %s not found", name))
	}

	source, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create source connector %s", name))
	}

	return source, nil
}

// CreateDestination creates a destination connector instance
func (r *Registry) CreateDestination(name string, cfg *config.Config) (RateDestination, error) {
	r.mu.RLock()
	factory, exists := r.destinations[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("destination connector %s not found", name))
	}

	destination, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create destination connector %s", name))
	}

	return destination, nil
}

// ListSources returns the registered source connectors sorted by name
func (r *Registry) ListSources() []*ConnectorInfo {
	return r.list(core.ConnectorTypeSource)
}

// ListDestinations returns the registered destination connectors sorted by name
func (r *Registry) ListDestinations() []*ConnectorInfo {
	return r.list(core.ConnectorTypeDestination)
}

func (r *Registry) list(t core.ConnectorType) []*ConnectorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*ConnectorInfo, 0, len(r.info[t]))
	for _, info := range r.info[t] {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[name]
	return exists
}

// HasDestination checks if a destination connector is registered
func (r *Registry) HasDestination(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.destinations[name]
	return exists
}

// Global registry functions

// RegisterSource registers a source connector in the global registry
func RegisterSource(name, description string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, description, factory)
}

// RegisterDestination registers a destination connector in the global registry
func RegisterDestination(name, description string, factory DestinationFactory) error {
	return globalRegistry.RegisterDestination(name, description, factory)
}

// CreateSource creates a source connector from the global registry
func CreateSource(name string, cfg *config.Config) (RateSource, error) {
	return globalRegistry.CreateSource(name, cfg)
}

// CreateDestination creates a destination connector from the global registry
func CreateDestination(name string, cfg *config.Config) (RateDestination, error) {
	return globalRegistry.CreateDestination(name, cfg)
}

// ListSources returns registered sources from the global registry
func ListSources() []*ConnectorInfo {
	return globalRegistry.ListSources()
}

// ListDestinations returns registered destinations from the global registry
func ListDestinations() []*ConnectorInfo {
	return globalRegistry.ListDestinations()
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
