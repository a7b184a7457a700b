// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	fsnotify "gopkg.in/fsnotify.v1"
)

// Watch calls fn with the new configuration each time path is modified, until
// ctx is done.
//
// The directory is watched, not the file, since editors usually replace the
// file. An invalid file is logged and ignored.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	clean := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err = <-watcher.Errors:
			return err
		case e := <-watcher.Events:
			if filepath.Clean(e.Name) != clean || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config reload")
				continue
			}
			c, err := Parse(data)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config reload")
				continue
			}
			if err := c.applyEnv(); err != nil {
				log.Warn().Err(err).Msg("config reload")
				continue
			}
			log.Info().Str("path", path).Msg("config reloaded")
			fn(c)
		}
	}
}
