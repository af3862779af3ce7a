package dashboard

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/yaoapp/kun/log"
)

// Watch call handler every time the file is written or re-created, until ctx is done.
// The parent directory is watched, editors that replace the file are seen too
func Watch(ctx context.Context, filename string, handler func(event string)) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Info("[Watch] Watching: %s", abs)

	for {
		select {
		case <-ctx.Done():
			log.Info("[Watch] handler exit")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			eventType := strings.Split(event.Op.String(), "|")[0]
			log.Info("[Watch] %s %s", eventType, filepath.Base(abs))
			handler(eventType)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("[Watch] %s", err.Error())
		}
	}
}
