package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// manifestName is the per-day JSON Lines index inside each site directory.
const manifestName = "entries.jsonl"

// NAS archives entries under <root>/<site>/<YYYY-MM-DD>/. Each entry is
// appended to the day's manifest; attachments are written next to it.
type NAS struct {
	root   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewNAS creates the root directory if needed and returns a gateway over it.
func NewNAS(root string, logger *slog.Logger) (*NAS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create NAS root %s: %w", root, err)
	}
	return &NAS{root: root, logger: logger}, nil
}

// manifestLine is one line of entries.jsonl.
type manifestLine struct {
	ArchivedAt time.Time `json:"archived_at"`
	Site       string    `json:"site"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	Attachment string    `json:"attachment,omitempty"` // file name relative to the day directory
	Size       int       `json:"size,omitempty"`
}

func (n *NAS) Record(ctx context.Context, entry domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := n.dayDir(entry.Site, entry.Timestamp)
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	line := manifestLine{
		ArchivedAt: entry.Timestamp,
		Site:       entry.Site,
		Category:   entry.Category,
		Content:    entry.Content,
	}
	if entry.Attachment != nil {
		name, err := writeAttachment(dir, entry)
		if err != nil {
			return err
		}
		line.Attachment = name
		line.Size = entry.Attachment.Size()
	}

	if err := appendManifest(dir, line); err != nil {
		if line.Attachment != "" {
			if rmErr := os.Remove(filepath.Join(dir, line.Attachment)); rmErr != nil {
				n.logger.Warn("remove unindexed attachment", "dir", dir, "attachment", line.Attachment, "error", rmErr)
			}
		}
		return err
	}

	n.logger.Debug("archived to NAS", "dir", dir, "category", entry.Category, "attachment", line.Attachment)
	return nil
}

func appendManifest(dir string, line manifestLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("serialize manifest line: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, manifestName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	return nil
}

// Ping reports whether the root is still a reachable directory.
func (n *NAS) Ping(_ context.Context) error {
	info, err := os.Stat(n.root)
	if err != nil {
		return fmt.Errorf("NAS root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("NAS root %s is not a directory", n.root)
	}
	return nil
}

func (n *NAS) dayDir(site string, t time.Time) string {
	return filepath.Join(n.root, safeName(site), t.Format(time.DateOnly))
}

// writeAttachment stores the attachment with a timestamp prefix, adding a
// counter if the name is already taken.
func writeAttachment(dir string, entry domain.Entry) (string, error) {
	base := fmt.Sprintf("%s-%s-%s", entry.Timestamp.Format("150405"), safeName(entry.Category), safeName(filepath.Base(entry.Attachment.Filename)))
	name := base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			name = fmt.Sprintf("%d-%s", i, base)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create attachment: %w", err)
		}
		path := f.Name()
		if _, err := f.Write(entry.Attachment.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write attachment: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("close attachment: %w", err)
		}
		return name, nil
	}
}

// safeName keeps a single path element: separators and dot-only names are replaced.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || strings.Trim(s, ".") == "" {
		return "_"
	}
	return s
}
