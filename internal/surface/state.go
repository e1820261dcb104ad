package surface

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// State errors.
var (
	ErrSuperseded = errors.New("surface superseded by a newer request")
	ErrNoSurface  = errors.New("no surface installed")
)

// Layers holds the visibility flags for the surface and its helpers.
type Layers struct {
	Surface bool `json:"surface" yaml:"surface"`
	Axes    bool `json:"axes" yaml:"axes"`
	Labels  bool `json:"labels" yaml:"labels"`
}

// AllLayers returns every layer visible.
func AllLayers() Layers {
	return Layers{Surface: true, Axes: true, Labels: true}
}

// Hooks connect the state to a renderer. Release and ApplyLayers run with the
// state lock held and must not call back into the State.
type Hooks struct {
	// Release frees GPU-side resources of a retired surface.
	Release func(*Surface)
	// ApplyLayers pushes visibility flags to the renderer.
	ApplyLayers func(*Surface, Layers)
	// Installed runs after a new surface became live, outside the lock.
	Installed func(*Surface)
}

// Ticket identifies one build request. Later tickets supersede earlier ones.
type Ticket uint64

// State owns the single live surface.
type State struct {
	mu      sync.Mutex
	hooks   Hooks
	log     *zap.Logger
	latest  Ticket
	current *Surface
	layers  Layers
}

// NewState returns an empty state with all layers visible.
func NewState(hooks Hooks, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	return &State{hooks: hooks, log: log, layers: AllLayers()}
}

// Begin starts a build request and returns its ticket.
func (s *State) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Install makes surf the live surface unless a newer request was begun after t.
// The previous surface is released before the reference is replaced, then the
// current layer flags are applied to surf.
func (s *State) Install(t Ticket, surf *Surface) error {
	s.mu.Lock()
	if t != s.latest {
		latest := s.latest
		s.mu.Unlock()
		s.log.Debug("dropping superseded surface",
			zap.Uint64("ticket", uint64(t)),
			zap.Uint64("latest", uint64(latest)))
		return ErrSuperseded
	}

	prev := s.current
	if prev != nil && s.hooks.Release != nil {
		s.hooks.Release(prev)
	}
	s.current = surf
	if s.hooks.ApplyLayers != nil {
		s.hooks.ApplyLayers(surf, s.layers)
	}
	s.mu.Unlock()

	s.log.Info("surface installed",
		zap.String("id", surf.ID.String()),
		zap.String("mode", surf.Layout.Mode().String()),
		zap.Stringer("dims", surf.Layout.Dims()),
		zap.Int("triangles", surf.Mesh.TriangleCount()))

	if s.hooks.Installed != nil {
		s.hooks.Installed(surf)
	}
	return nil
}

// Current returns the live surface. The mesh and its layout always travel together.
func (s *State) Current() (*Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoSurface
	}
	return s.current, nil
}

// Layers returns the current visibility flags.
func (s *State) Layers() Layers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers
}

// SetLayers stores l and applies it to the live surface.
func (s *State) SetLayers(l Layers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = l
	if s.current != nil && s.hooks.ApplyLayers != nil {
		s.hooks.ApplyLayers(s.current, l)
	}
}

// Close releases the live surface.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.hooks.Release != nil {
		s.hooks.Release(s.current)
	}
	s.current = nil
}
