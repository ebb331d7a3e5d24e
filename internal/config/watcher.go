package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TA2k/hksvrepack/pkg/rtph264"
)

// CodecInfoWatcher watches a codec-info file and reports each successfully
// parsed update on Reloads. Per-stream semantics: a reload never mutates a
// live rtph264.Repacketizer (codec_info is fixed at construction); the
// caller is expected to build a fresh Repacketizer for the next stream
// (re)start once it observes a value on Reloads.
type CodecInfoWatcher struct {
	path    string
	onError func(error)

	Reloads chan rtph264.CodecInfo

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewCodecInfoWatcher creates a watcher for path. onError is called for
// watch-level errors and for a reload attempt whose file fails to parse;
// such a reload is skipped and nothing is sent on Reloads.
func NewCodecInfoWatcher(path string, onError func(error)) (*CodecInfoWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(path); err != nil {
		fw.Close() //nolint:errcheck
		return nil, err
	}

	return &CodecInfoWatcher{
		path:    path,
		onError: onError,
		Reloads: make(chan rtph264.CodecInfo, 1),
		watcher: fw,
	}, nil
}

// Start begins the watch loop in the background.
func (w *CodecInfoWatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(ctx)
}

// Stop ends the watch loop and releases the underlying inotify/kqueue handle.
func (w *CodecInfoWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close() //nolint:errcheck
}

func (w *CodecInfoWatcher) watchLoop(ctx context.Context) {
	retry := time.NewTicker(10 * time.Second)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-retry.C:
			_ = w.watcher.Add(w.path)

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			info, err := LoadCodecInfoFile(w.path)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}

			select {
			case w.Reloads <- info:
			default:
				// a previous reload hasn't been consumed yet; replace it
				select {
				case <-w.Reloads:
				default:
				}
				w.Reloads <- info
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
