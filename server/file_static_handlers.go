package server

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed static
var staticFiles embed.FS

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

// staticAsset is an embedded file with its precomputed headers
type staticAsset struct {
	data        []byte
	contentType string
	etag        string
}

var (
	assetsMu sync.RWMutex
	assets   = map[string]*staticAsset{}
)

// loadAsset reads fileName from the embedded files once and remembers it
func loadAsset(fileName string) (*staticAsset, error) {
	assetsMu.RLock()
	asset, ok := assets[fileName]
	assetsMu.RUnlock()
	if ok {
		return asset, nil
	}

	data, err := fs.ReadFile(StaticFilesFS(), fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	sum := sha256.Sum256(data)

	asset = &staticAsset{
		data:        data,
		contentType: ctype,
		etag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
	assetsMu.Lock()
	assets[fileName] = asset
	assetsMu.Unlock()
	return asset, nil
}

// StreamFile writes an embedded static file. A matching If-None-Match gets 304.
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	asset, err := loadAsset(fileName)
	if err != nil {
		return err
	}

	w.Header().Set("ETag", asset.etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, asset.etag) {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set("Content-Type", asset.contentType)
	if _, err := w.Write(asset.data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}
