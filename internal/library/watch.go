package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes under the music directory so the app can rescan.
// Bursts of file events collapse into a single callback after a quiet period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	onChange func()
	debounce time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewWatcher watches dir and its subdirectories. onChange runs on the
// watcher goroutine once per settled burst of changes.
func NewWatcher(logger *zap.Logger, dir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		logger:   logger,
		onChange: onChange,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// Close stops event delivery and releases the underlying OS watches.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.fsw.Close()
}

// addRecursive registers dir and every subdirectory. fsnotify watches are
// not recursive on their own.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.logger.Warn("watching new directory failed",
							zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()
		}
	}
}

// relevant filters the event stream down to changes that can affect the
// index: MP3 files and directories appearing or going away.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if strings.EqualFold(filepath.Ext(ev.Name), ".mp3") {
		return true
	}
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		return true
	}
	info, err := os.Stat(ev.Name)
	return err == nil && info.IsDir()
}
