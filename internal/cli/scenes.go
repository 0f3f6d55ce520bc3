package cli

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ncruces/go-strftime"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/storage"
)

// loadScene reads a scene file and applies the configured comparator.
func (a *app) loadScene(path string) (*model.Snapshot, error) {
	s, err := storage.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	cmp, err := a.cfg.NodeComparator()
	if err != nil {
		return nil, err
	}
	if cmp != model.Exact {
		s = s.WithComparator(cmp)
	}
	return s, nil
}

func (a *app) loadPair(oldPath, newPath string) (old, new *model.Snapshot, err error) {
	if old, err = a.loadScene(oldPath); err != nil {
		return nil, nil, err
	}
	if new, err = a.loadScene(newPath); err != nil {
		return nil, nil, err
	}
	return old, new, nil
}

// formatTime formats t with the configured strftime layout
func (a *app) formatTime(t time.Time) string {
	return strftime.Format(a.cfg.Get("time_format"), t)
}

func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "stat %s", path)
	}
	return info.ModTime(), nil
}
