package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/checksum"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/models"
)

// IsAsset reports whether rel has one of the configured asset extensions.
func (c *Converter) IsAsset(rel string) bool {
	ext := path.Ext(rel)
	for _, e := range c.assetExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// planAssets assigns an attachment name to every asset before any page is
// converted, so image embeds name the file the asset is copied to.
func (c *Converter) planAssets() ([]models.DocumentMetadata, error) {
	files, err := c.src.List("", c.assetExts...)
	if err != nil {
		return nil, fmt.Errorf("converter: list assets: %w", err)
	}
	for _, f := range files {
		if _, known := c.assets[f.Path]; known {
			continue
		}
		dest, err := c.assetName(f.Path, f.Checksum)
		if err != nil {
			continue
		}
		c.assets[f.Path] = dest
		c.assetOwners[dest] = f.Path
	}
	return files, nil
}

// assetDest looks up the attachment assigned to rel. Callers hold c.mu.
func (c *Converter) assetDest(rel string) (string, bool) {
	dest, ok := c.assets[rel]
	return dest, ok
}

func (c *Converter) copyAssets(ctx context.Context, res *Result, files []models.DocumentMetadata) error {
	copied := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest, err := c.copyAsset(f.Path, f.Checksum)
		if err != nil {
			if errors.Is(err, apperr.ErrFilesystemWrite) {
				return err
			}
			c.logger.Warn("converter: asset failed", slog.String("source", f.Path), slog.String("error", err.Error()))
			c.recordFailure(f.Path, index.KindAsset, f.Checksum, err)
			res.fail(f.Path, index.KindAsset, err)
			continue
		}
		c.logger.Debug("converter: copied asset", slog.String("source", f.Path), slog.String("dest", dest))
		copied++
	}
	res.Assets += copied
	c.metrics.AddAssets(copied)
	return nil
}

// CopyAsset copies one asset into the attachments folder, reusing the
// name it was given earlier in this converter's lifetime.
func (c *Converter) CopyAsset(ctx context.Context, rel string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := c.src.Read(rel)
	if err != nil {
		return "", err
	}
	dest, err := c.copyAsset(rel, checksum.Sum(data))
	if err == nil {
		c.metrics.AddAssets(1)
	}
	return dest, err
}

// copyAsset writes rel to the attachments folder under its resolved name.
// A name held by another source gets a _1, _2... suffix; a file already
// holding identical content is reused so repeated runs do not multiply
// copies.
func (c *Converter) copyAsset(rel, sum string) (string, error) {
	dest, known := c.assets[rel]
	if !known {
		var err error
		if dest, err = c.assetName(rel, sum); err != nil {
			return "", err
		}
	}

	if !c.sameContent(dest, sum) {
		rc, err := c.src.Open(rel)
		if err != nil {
			return "", err
		}
		err = c.dst.WriteFrom(dest, rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	c.assets[rel] = dest
	c.assetOwners[dest] = rel

	if c.catalog != nil {
		err := c.catalog.Upsert(index.Entry{
			Source:    rel,
			Dest:      dest,
			Kind:      index.KindAsset,
			Title:     path.Base(dest),
			Checksum:  sum,
			UpdatedAt: c.now(),
		}, "", nil)
		if err != nil {
			c.logger.Warn("converter: catalog record failed", slog.String("source", rel), slog.String("error", err.Error()))
		}
	}
	return dest, nil
}

func (c *Converter) assetName(rel, sum string) (string, error) {
	ext := path.Ext(rel)
	stem := identity.ResolveName(strings.TrimSuffix(path.Base(rel), ext))
	for n := 0; n < 10000; n++ {
		name := stem + ext
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		dest := path.Join(c.attachmentsDir, name)
		if _, taken := c.assetOwners[dest]; taken {
			continue
		}
		if !c.dst.Exists(dest) || c.sameContent(dest, sum) {
			return dest, nil
		}
	}
	return "", fmt.Errorf("converter: no free attachment name for %s", rel)
}

func (c *Converter) sameContent(dest, sum string) bool {
	data, err := c.dst.Read(dest)
	return err == nil && checksum.Sum(data) == sum
}
