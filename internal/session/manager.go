// Package session owns the lifecycle of browser instances: creation with
// anti-detection configuration, tracking of active instances, and guaranteed
// teardown of both the Chrome process and its profile directory.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

const gracefulQuitTimeout = 10 * time.Second

type Config struct {
	// ProfileBase is the directory under which per-session profile
	// directories are created.
	ProfileBase    string
	UserAgent      string
	Headless       bool
	SessionTimeout time.Duration
}

// Session owns one Chrome process and its isolated profile directory.
// Exactly one in-flight operation holds a session at a time.
type Session struct {
	ID         string
	ProfileDir string

	ctx      context.Context
	cancels  []context.CancelFunc
	released bool
}

// Context returns the chromedp context all browser actions for this session
// run against. It carries the session-level deadline backstop.
func (s *Session) Context() context.Context { return s.ctx }

type Manager struct {
	mu     sync.Mutex
	active map[string]*Session
	cfg    Config
	logger *logrus.Logger
}

func NewManager(cfg Config, logger *logrus.Logger) (*Manager, error) {
	if cfg.ProfileBase == "" {
		cfg.ProfileBase = filepath.Join(os.TempDir(), "timehealer-profiles")
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 5 * time.Minute
	}
	if err := os.MkdirAll(cfg.ProfileBase, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create profile base directory: %w", err)
	}
	m := &Manager{
		active: make(map[string]*Session),
		cfg:    cfg,
		logger: logger,
	}
	m.CleanupOrphans()
	return m, nil
}

// Acquire launches a fresh browser with an isolated, uniquely-named profile
// and registers it as active. The caller owns the session until Release,
// which must be reachable from every exit path.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.CleanupOrphans()

	id := uuid.NewString()
	dir := filepath.Join(m.cfg.ProfileBase, "profile-"+id)

	// Register before the directory exists so a concurrent orphan sweep
	// never mistakes this profile for a leftover.
	sess := &Session{ID: id, ProfileDir: dir}
	m.mu.Lock()
	m.active[id] = sess
	m.mu.Unlock()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		m.mu.Lock()
		delete(m.active, id)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		allocatorOptions(dir, m.cfg.UserAgent, m.cfg.Headless)...)
	// Backstop against a hung page: the whole session dies with its deadline.
	ttlCtx, ttlCancel := context.WithTimeout(allocCtx, m.cfg.SessionTimeout)
	browserCtx, browserCancel := chromedp.NewContext(ttlCtx, chromedp.WithLogf(m.logger.Debugf))
	sess.ctx = browserCtx
	sess.cancels = []context.CancelFunc{browserCancel, ttlCancel, allocCancel}

	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, script := range stealthScripts {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		m.Release(sess)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.logger.Infof("Acquired browser session %s (profile %s)", id, dir)
	return sess, nil
}

// Release tears a session down: graceful browser quit, escalation to a
// process kill, then profile directory removal. Idempotent and safe to call
// on a nil or already-released session.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	if s.released {
		m.mu.Unlock()
		return
	}
	s.released = true
	delete(m.active, s.ID)
	m.mu.Unlock()

	if s.ctx != nil {
		done := make(chan struct{})
		go func() {
			_ = chromedp.Cancel(s.ctx)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(gracefulQuitTimeout):
			m.logger.Warnf("Session %s did not quit gracefully, forcing termination", s.ID)
		}
	}
	for _, cancel := range s.cancels {
		cancel()
	}

	if s.ProfileDir != "" {
		m.killByProfileDir(s.ProfileDir)
		if err := os.RemoveAll(s.ProfileDir); err != nil {
			m.logger.Warnf("Failed to remove profile directory %s: %v", s.ProfileDir, err)
		}
	}
	m.logger.Infof("Released browser session %s", s.ID)
}

// ReleaseAll releases every currently-active session. Invoked at process
// shutdown as the backstop against leaks.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.Release(s)
	}
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// CleanupOrphans kills stray browser processes left over from earlier runs
// and removes their profile directories. Only processes launched against a
// profile under our base directory are touched; a shared host may run other
// Chrome instances we must not disturb.
func (m *Manager) CleanupOrphans() {
	m.mu.Lock()
	activeDirs := make(map[string]bool, len(m.active))
	for _, s := range m.active {
		activeDirs[s.ProfileDir] = true
	}
	m.mu.Unlock()

	procs, err := process.Processes()
	if err != nil {
		m.logger.Warnf("Failed to list processes for orphan cleanup: %v", err)
	} else {
		for _, p := range procs {
			cmdline, err := p.Cmdline()
			if err != nil || !strings.Contains(cmdline, m.cfg.ProfileBase) {
				continue
			}
			orphan := true
			for dir := range activeDirs {
				if strings.Contains(cmdline, dir) {
					orphan = false
					break
				}
			}
			if !orphan {
				continue
			}
			m.logger.Infof("Killing orphaned browser process %d", p.Pid)
			if err := p.Terminate(); err != nil {
				_ = p.Kill()
			}
		}
	}

	m.sweepStaleProfiles(activeDirs)
}

func (m *Manager) sweepStaleProfiles(activeDirs map[string]bool) {
	entries, err := os.ReadDir(m.cfg.ProfileBase)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "profile-") {
			continue
		}
		dir := filepath.Join(m.cfg.ProfileBase, entry.Name())
		if activeDirs[dir] {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warnf("Failed to remove stale profile directory %s: %v", dir, err)
		}
	}
}

// killByProfileDir terminates any process still referencing a session's
// profile directory, escalating from SIGTERM to SIGKILL.
func (m *Manager) killByProfileDir(dir string) {
	procs, err := process.Processes()
	if err != nil {
		return
	}
	var matched []*process.Process
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil || !strings.Contains(cmdline, dir) {
			continue
		}
		matched = append(matched, p)
		_ = p.Terminate()
	}
	if len(matched) == 0 {
		return
	}
	time.Sleep(2 * time.Second)
	for _, p := range matched {
		if running, _ := p.IsRunning(); running {
			_ = p.Kill()
		}
	}
}
