package index

import (
	"log/slog"
	"time"

	"github.com/starford/blockdoc/internal/checksum"
	"github.com/starford/blockdoc/internal/parser"
	"github.com/starford/blockdoc/internal/storage"
)

// Sync walks the document root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db DocumentIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses stored document bytes and upserts the derived row.
// A zero modTime means now.
func IndexFile(db DocumentIndex, path string, data []byte, modTime time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := DocumentRow{
		Path:       path,
		Title:      res.Title,
		Checksum:   checksum.Sum(data),
		BlockCount: res.BlockCount,
		Media:      res.Media,
		UpdatedAt:  modTime,
	}
	return db.UpsertDocument(row, res.Body)
}
