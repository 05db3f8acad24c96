package certificate

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// Watcher serves a file certificate and reloads it when the certificate or
// key file changes. A failed reload keeps the previous certificate.
type Watcher struct {
	certFile string
	keyFile  string
	password string

	mu   sync.RWMutex
	cert *tls.Certificate

	done     chan struct{}
	stopOnce sync.Once
	logger   logger.Logger
	metrics  *metric.Registry

	// quiet is how long events must stop before a reload runs.
	quiet    time.Duration
	timerMu  sync.Mutex
	timer    *time.Timer
	reloadMu sync.Mutex
	onReload func(*tls.Certificate)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithWatcherMetrics records reloads in m.
func WithWatcherMetrics(m *metric.Registry) WatcherOption {
	return func(w *Watcher) {
		w.metrics = m
	}
}

// WithDebounce sets how long file events must stop before the
// certificate is reloaded. A certificate and key written one after the
// other within this window cause a single reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.quiet = d
	}
}

// OnReload registers a callback invoked after each successful reload.
func OnReload(fn func(*tls.Certificate)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher loads the certificate and returns a watcher serving it.
// keyFile may be empty when the key lives in certFile or the file is a
// pfx bundle.
func NewWatcher(certFile, keyFile, password string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		password: password,
		done:     make(chan struct{}),
		logger:   logger.Default(),
		quiet:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	cert, err := LoadFile(certFile, keyFile, password)
	if err != nil {
		return nil, err
	}
	w.cert = cert
	return w, nil
}

// Start watches for certificate changes. It blocks until Stop is called.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("certificate: create watcher: %w", err)
	}

	// Watch the directories so editor-style rename-and-replace is seen.
	dirs := map[string]struct{}{filepath.Dir(w.certFile): {}}
	if w.keyFile != "" {
		dirs[filepath.Dir(w.keyFile)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("certificate: watch dir %s: %w", dir, err)
		}
	}

	w.logger.Info("certificate watcher started",
		"cert_file", w.certFile,
		"key_file", w.keyFile,
	)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.isWatchedFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Debug("certificate file changed",
				"file", event.Name,
				"op", event.Op.String(),
			)
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("certificate watcher error",
				"error", err,
				"cert_file", w.certFile,
			)

		case <-w.done:
			w.cancelReload()
			return watcher.Close()
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Error("certificate watcher stopped with error", "error", err)
		}
	}()
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// Certificate returns the current certificate.
func (w *Watcher) Certificate() *tls.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert
}

// GetCertificate implements tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return w.Certificate(), nil
}

// Reload reloads the certificate immediately.
func (w *Watcher) Reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	cert, err := LoadFile(w.certFile, w.keyFile, w.password)
	if err != nil {
		w.metrics.RecordCertificateReload(false)
		return err
	}

	w.mu.Lock()
	w.cert = cert
	w.mu.Unlock()

	w.metrics.RecordCertificateReload(true)
	w.logger.Info("certificate reloaded",
		"cert_file", w.certFile,
		"certificate", Describe(cert),
	)
	if w.onReload != nil {
		w.onReload(cert)
	}
	return nil
}

func (w *Watcher) isWatchedFile(name string) bool {
	base := filepath.Base(name)
	if base == filepath.Base(w.certFile) {
		return true
	}
	return w.keyFile != "" && base == filepath.Base(w.keyFile)
}

// scheduleReload restarts the quiet timer. The reload runs once no
// event has arrived for the quiet period.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quiet, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.Reload(); err != nil {
			w.logger.Error("certificate reload failed",
				"error", err,
				"cert_file", w.certFile,
			)
		}
	})
}

func (w *Watcher) cancelReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
