package ftp

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"

	krfs "github.com/kr/fs"
)

// WalkFunc is called by Walk for every remote file or directory
// visited. If listing a directory failed, err describes the problem and
// entry is nil; returning the error stops the walk, returning nil skips
// the directory. Returning SkipDir from a directory visit skips its
// contents.
type WalkFunc func(pathname string, entry *Entry, err error) error

// SkipDir is used as a return value from a WalkFunc to indicate that
// the directory named in the call is to be skipped.
var SkipDir = fs.SkipDir

// Walk walks the remote tree rooted at root in the order the server
// lists entries, calling walkFn for each entry found via ListEntries. The root itself
// is visited first with a synthesized directory entry, since LIST on a
// directory yields its contents rather than the directory.
func (c *Client) Walk(root string, walkFn WalkFunc) error {
	cleanRoot := path.Clean(root)
	rootEntry := &Entry{Name: path.Base(cleanRoot), Type: EntryTypeDir}
	return c.walk(cleanRoot, rootEntry, walkFn)
}

func (c *Client) walk(pathname string, entry *Entry, walkFn WalkFunc) error {
	if err := walkFn(pathname, entry, nil); err != nil {
		if entry.Type == EntryTypeDir && err == SkipDir {
			return nil
		}
		return err
	}

	if entry.Type != EntryTypeDir {
		return nil
	}

	entries, err := c.ListEntries(pathname)
	if err != nil {
		return walkFn(pathname, nil, err)
	}

	for _, child := range entries {
		if child.Name == "." || child.Name == ".." {
			continue
		}
		if err := c.walk(path.Join(pathname, child.Name), child, walkFn); err != nil {
			return err
		}
	}
	return nil
}

// UploadTree replays the local directory tree rooted at localDir under
// remoteDir: every local directory becomes a MKD and every regular file
// a STOR. Remote directories that already exist are tolerated. Symlinks
// and other non-regular files are skipped.
func (c *Client) UploadTree(localDir, remoteDir string) error {
	walker := krfs.Walk(localDir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, walker.Path())
		if err != nil {
			return err
		}

		remote := path.Join(remoteDir, filepath.ToSlash(rel))
		info := walker.Stat()

		switch {
		case info.IsDir():
			if _, err := c.MakeDir(remote); err != nil {
				// The directory may already exist on the server; only
				// protocol-level refusals are tolerable here.
				if !isProtocolError(err) {
					return err
				}
				c.logger.Debug("MKD refused, assuming directory exists", "dir", remote, "error", err)
			}
		case info.Mode().IsRegular():
			if err := c.StoreFile(walker.Path(), remote); err != nil {
				return err
			}
		default:
			c.logger.Debug("skipping non-regular file", "path", walker.Path())
		}
	}
	return nil
}

func isProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
