// Package scene is a minimal object registry standing in for a host
// application. Objects are referred to by Handle and resolved on every
// use, so a handle never outlives the object it names.
package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/pkg/math"
)

var (
	ErrStaleHandle   = errors.New("handle does not name a live object")
	ErrDuplicateName = errors.New("object name already in use")
	ErrWrongKind     = errors.New("object has the wrong kind")
	ErrModeNotValid  = errors.New("mode not available for object")
)

// Handle identifies an object. The zero Handle is never valid.
type Handle uint64

// Object is one of *MeshObject, *ArmatureObject or *EmptyObject.
type Object interface {
	sceneObject()
}

type entry struct {
	name string
	obj  Object
}

// Scene owns objects, the active object and the current mode.
type Scene struct {
	mu      sync.Mutex
	next    Handle
	objects map[Handle]*entry
	active  Handle
	mode    Mode

	// Cursor is the 3D cursor location.
	Cursor math.Vec3
	// Viewpoint is the eye position of the view.
	Viewpoint math.Vec3
}

// New returns an empty scene in object mode.
func New() *Scene {
	return &Scene{objects: make(map[Handle]*entry)}
}

// Add registers obj under a unique name.
func (s *Scene) Add(name string, obj Object) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.find(name); ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	s.next++
	s.objects[s.next] = &entry{name: name, obj: obj}
	logger.Debug("object added", zap.String("name", name), zap.String("kind", KindOf(obj)), zap.Uint64("handle", uint64(s.next)))
	return s.next, nil
}

// Remove deletes the object. Handles to it become stale.
func (s *Scene) Remove(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[h]; !ok {
		return ErrStaleHandle
	}
	delete(s.objects, h)
	if s.active == h {
		s.active = 0
		s.mode = ObjectMode
	}
	return nil
}

// Rename changes the object's name. Its handle stays valid.
func (s *Scene) Rename(h Handle, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.objects[h]
	if !ok {
		return ErrStaleHandle
	}
	if other, ok := s.find(name); ok && other != h {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	e.name = name
	return nil
}

// Lookup resolves a handle.
func (s *Scene) Lookup(h Handle) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStaleHandle, h)
	}
	return e.obj, nil
}

// Name returns the object's current name.
func (s *Scene) Name(h Handle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.objects[h]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrStaleHandle, h)
	}
	return e.name, nil
}

// Find returns the handle of the named object.
func (s *Scene) Find(name string) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(name)
}

func (s *Scene) find(name string) (Handle, bool) {
	for h, e := range s.objects {
		if e.name == name {
			return h, true
		}
	}
	return 0, false
}

// Handles lists live handles in creation order.
func (s *Scene) Handles() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handle, 0, len(s.objects))
	for h := range s.objects {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Mesh resolves a handle that must name a mesh object.
func (s *Scene) Mesh(h Handle) (*MeshObject, error) {
	obj, err := s.Lookup(h)
	if err != nil {
		return nil, err
	}
	m, ok := obj.(*MeshObject)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a mesh", ErrWrongKind, KindOf(obj))
	}
	return m, nil
}

// Armature resolves a handle that must name an armature.
func (s *Scene) Armature(h Handle) (*ArmatureObject, error) {
	obj, err := s.Lookup(h)
	if err != nil {
		return nil, err
	}
	a, ok := obj.(*ArmatureObject)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an armature", ErrWrongKind, KindOf(obj))
	}
	return a, nil
}

// Active returns the active object and the current mode.
func (s *Scene) Active() (Handle, Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.mode
}
