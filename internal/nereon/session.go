package nereon

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"grimm.is/nereon/internal/cabi"
	"grimm.is/nereon/internal/clock"
	"grimm.is/nereon/internal/logging"
	"grimm.is/nereon/internal/metrics"
	"grimm.is/nereon/internal/tree"
)

// Session is one open libnereon context. Raw records reachable from it are
// valid only until Close. A Session must not be used from more than one
// goroutine at a time; separate sessions are independent.
type Session struct {
	id      string
	lib     Library
	ctx     cabi.Ctx
	closed  bool
	logger  *logging.Logger
	metrics *metrics.Registry
	clock   clock.Clock
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock sets the time source used to time decodes.
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// Open initializes a context from the given paths. Either path may be empty.
// On failure nothing is left to close.
func Open(lib Library, cfgPath, metaPath string, opts ...Option) (*Session, error) {
	cfg, err := newCPath(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	meta, err := newCPath(metaPath)
	if err != nil {
		return nil, fmt.Errorf("meta path: %w", err)
	}

	s := &Session{
		id:      uuid.NewString(),
		lib:     lib,
		logger:  logging.WithComponent("session"),
		metrics: metrics.Get(),
		clock:   clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithSession(s.id)

	status := lib.Init(&s.ctx, cfg.ptr(), meta.ptr())
	runtime.KeepAlive(cfg.buf)
	runtime.KeepAlive(meta.buf)

	if status == cabi.StatusFailed {
		err := fmt.Errorf("%w (config %q, meta %q)", ErrOpenFailed, cfgPath, metaPath)
		s.metrics.RecordOpen(err)
		s.logger.Warn("context init failed", "cfg", cfgPath, "meta", metaPath)
		return nil, err
	}

	s.metrics.RecordOpen(nil)
	s.logger.Debug("session opened", "cfg", cfgPath, "meta", metaPath,
		"tree", s.ctx.Cfg != nil, "meta_count", s.ctx.MetaCount)
	return s, nil
}

// ID returns the session's identifier, used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Close finalizes the context. Only the first call reaches the foreign
// library; later calls do nothing.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.lib.Finalize(&s.ctx)
	s.ctx = cabi.Ctx{}
	s.metrics.RecordClose()
	s.logger.Debug("session closed")
	return nil
}

// MetaCount returns the number of metadata records the context exposes.
func (s *Session) MetaCount() (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.ctx.Meta == nil || s.ctx.MetaCount < 0 {
		return 0, nil
	}
	return int(s.ctx.MetaCount), nil
}

// Decode copies the configuration tree out of the context. It returns
// (nil, nil) when the context holds no tree. On error no partial tree is
// returned.
func (s *Session) Decode() (*tree.Node, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	start := s.clock.Now()
	root, err := decodeRoot(s.ctx.Cfg)
	elapsed := s.clock.Since(start)

	if err != nil {
		s.metrics.RecordDecode(0, faultKind(err), err, elapsed)
		s.logger.Warn("decode failed", "error", err)
		return nil, err
	}

	nodes := root.Count()
	s.metrics.RecordDecode(nodes, "", nil, elapsed)
	s.logger.Debug("tree decoded", "nodes", nodes, "elapsed", elapsed)
	return root, nil
}

// WithSession opens a session, runs fn and closes the session however fn
// exits, including by panic.
func WithSession(lib Library, cfgPath, metaPath string, fn func(*Session) error, opts ...Option) error {
	s, err := Open(lib, cfgPath, metaPath, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// Decode opens a context for the given paths, decodes its tree and closes it.
// It returns (nil, nil) when there is no configuration, for example when both
// paths are empty.
func Decode(lib Library, cfgPath, metaPath string, opts ...Option) (*tree.Node, error) {
	var root *tree.Node
	err := WithSession(lib, cfgPath, metaPath, func(s *Session) error {
		var err error
		root, err = s.Decode()
		return err
	}, opts...)
	if err != nil {
		return nil, err
	}
	return root, nil
}
