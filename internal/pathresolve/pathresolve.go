// Package pathresolve turns the raw CLI input into a single filesystem
// target. Only path strings are manipulated here; nothing touches the
// filesystem beyond working-directory resolution.
package pathresolve

import (
	"path/filepath"
	"strings"
)

// Resolve normalizes a directly supplied file or directory path.
func Resolve(path string) (string, error) {
	return filepath.Abs(path)
}

// ResolveTorrent resolves the two-part path convention used by download
// client integrations (uTorrent passes the download directory and an entry
// name). When the directory is the configured flat-downloads root
// (compared case-insensitively; torrent clients on Windows are sloppy
// about casing), a single file was downloaded straight into it and the
// target is root/entry. Otherwise a multi-file batch was downloaded into
// its own directory, the entry name is just a random file from the batch,
// and the target is the directory itself.
func ResolveTorrent(downloadRoot, entryName, flatRoot string) string {
	if strings.EqualFold(downloadRoot, flatRoot) {
		return filepath.Join(downloadRoot, entryName)
	}
	return downloadRoot
}
