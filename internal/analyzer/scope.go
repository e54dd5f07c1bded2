package analyzer

import "phpmetrics/internal/context"

// ScopeTracker is the stack of open brace blocks for one file. Its depth
// always equals the number of unmatched '{' seen so far.
type ScopeTracker struct {
	frames []context.Frame
}

func (s *ScopeTracker) EnterBlock(f context.Frame) {
	s.frames = append(s.frames, f)
}

// CloseBlock pops the innermost frame. An unmatched '}' reports false and
// leaves the stack untouched.
func (s *ScopeTracker) CloseBlock() (context.Frame, bool) {
	if len(s.frames) == 0 {
		return context.Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

func (s *ScopeTracker) Depth() int {
	return len(s.frames)
}

// CurrentClass returns the innermost open class frame.
func (s *ScopeTracker) CurrentClass() (string, bool) {
	return s.innermost(context.FrameClass)
}

// CurrentFunction returns the innermost open named function frame.
func (s *ScopeTracker) CurrentFunction() (string, bool) {
	return s.innermost(context.FrameFunction)
}

func (s *ScopeTracker) innermost(kind context.FrameKind) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == kind {
			return s.frames[i].Name, true
		}
	}
	return "", false
}
