package scene

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/logger"
)

// Mode is the interaction mode of the active object.
type Mode int

const (
	ObjectMode Mode = iota
	EditMode
	WeightPaintMode
)

func (m Mode) String() string {
	switch m {
	case ObjectMode:
		return "object"
	case EditMode:
		return "edit"
	case WeightPaintMode:
		return "weight_paint"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// supports reports whether obj can enter mode.
func supports(obj Object, mode Mode) bool {
	switch obj.(type) {
	case *MeshObject:
		return true
	case *ArmatureObject:
		return mode != WeightPaintMode
	}
	return mode == ObjectMode
}

// EnterMode makes h the active object in the given mode and returns a
// function restoring the previous active object and mode. Call it with
// defer; calling it more than once has no further effect.
func (s *Scene) EnterMode(h Handle, mode Mode) (restore func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStaleHandle, h)
	}
	if !supports(e.obj, mode) {
		return nil, fmt.Errorf("%w: %s on %s %q", ErrModeNotValid, mode, KindOf(e.obj), e.name)
	}

	prevActive, prevMode := s.active, s.mode
	s.active, s.mode = h, mode
	logger.Debug("mode entered", zap.String("object", e.name), zap.Stringer("mode", mode), zap.Stringer("previous", prevMode))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.objects[prevActive]; !ok {
				// The previous object is gone.
				prevActive, prevMode = 0, ObjectMode
			}
			s.active, s.mode = prevActive, prevMode
			logger.Debug("mode restored", zap.Stringer("mode", prevMode))
		})
	}, nil
}
