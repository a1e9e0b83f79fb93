package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/tokenbrush/internal/logger"
)

// Slot names a character image field that can receive a published asset.
type Slot string

const (
	SlotPortrait Slot = "portrait"
	SlotToken    Slot = "token"
)

// Asset is one resolved image ready for persistence
type Asset struct {
	Data        []byte
	ContentType string
}

// Uploader persists a file and returns its final storage path. The write is
// atomic from the pipeline's perspective.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte, overwrite bool) (string, error)
}

// RecordUpdater updates a character's image references. Implemented by
// character.Store.
type RecordUpdater interface {
	SetImagePaths(id, portraitPath, tokenPath string) error
}

// PublishError reports a failed publish. Stage distinguishes a storage write
// failure from a record update failure, so a written-but-unreferenced file is
// never silent.
type PublishError struct {
	Stage string // "upload" or "record"
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed during %s: %v", e.Stage, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher persists generated assets and points the character record at
// them.
type Publisher struct {
	uploader  Uploader
	records   RecordUpdater
	overwrite bool

	// now and newSuffix are injectable for tests
	now       func() time.Time
	newSuffix func() string
}

// New creates a Publisher. overwrite reuses a stable filename per character
// and slot instead of minting a fresh one per publish.
func New(uploader Uploader, records RecordUpdater, overwrite bool) *Publisher {
	return &Publisher{
		uploader:  uploader,
		records:   records,
		overwrite: overwrite,
		now:       time.Now,
		newSuffix: func() string { return strings.Split(uuid.NewString(), "-")[0] },
	}
}

// Publish stores each asset and updates the character record's image paths
// in a single update, each path carrying a fresh cache-busting query suffix.
// Returns the stored path per slot.
func (p *Publisher) Publish(ctx context.Context, characterID, filenameHint string, assets map[Slot]Asset) (map[Slot]string, error) {
	paths := make(map[Slot]string, len(assets))

	// Deterministic slot order keeps filenames and logs stable.
	for _, slot := range []Slot{SlotPortrait, SlotToken} {
		asset, ok := assets[slot]
		if !ok {
			continue
		}
		filename := p.filename(slot, filenameHint, asset.ContentType)
		path, err := p.uploader.Upload(ctx, filename, asset.Data, p.overwrite)
		if err != nil {
			return nil, &PublishError{Stage: "upload", Err: err}
		}
		busted := fmt.Sprintf("%s?t=%d", path, p.now().UnixMilli())
		paths[slot] = busted
		logger.Infof("stored %s image at %s (%d bytes)", slot, path, len(asset.Data))
	}

	if len(paths) == 0 {
		return paths, nil
	}

	if err := p.records.SetImagePaths(characterID, paths[SlotPortrait], paths[SlotToken]); err != nil {
		// The files are written at this point; the caller must hear about it.
		return paths, &PublishError{Stage: "record", Err: err}
	}
	return paths, nil
}

func (p *Publisher) filename(slot Slot, hint, contentType string) string {
	base := fmt.Sprintf("%s-%s", slot, SanitizeName(hint))
	if !p.overwrite {
		base += "-" + p.newSuffix()
	}
	return base + extension(contentType)
}

// SanitizeName reduces a display name to a safe filename fragment:
// whitespace and non-alphanumerics become hyphens.
func SanitizeName(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "character"
	}
	return out
}

func extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/webp":
		return ".webp"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
