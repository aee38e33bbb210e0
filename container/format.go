package container

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path"
	"strings"
)

const (
	// ApplicationID is stored in the SQLite header to mark array containers ("ARFY").
	ApplicationID = 0x41524659
	// RootPath addresses the root group.
	RootPath = "/"

	headerSize      = 100
	applicationIDAt = 68
)

var sqliteMagic = []byte("SQLite format 3\x00")

// IsContainer reports whether the file at filePath carries the container
// magic: a SQLite 3 header with the container application id.
func IsContainer(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return false, nil
		}
		return false, err
	}
	if !bytes.Equal(header[:len(sqliteMagic)], sqliteMagic) {
		return false, nil
	}
	return binary.BigEndian.Uint32(header[applicationIDAt:]) == ApplicationID, nil
}

// CleanPath normalizes a node path: rooted, no duplicate or trailing separators.
func CleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// parents lists the ancestors of p below the root, outermost first.
func parents(p string) []string {
	var ret []string
	for dir := path.Dir(p); dir != RootPath && dir != "."; dir = path.Dir(dir) {
		ret = append([]string{dir}, ret...)
	}
	return ret
}

func subtreePrefix(p string) string {
	if p == RootPath {
		return RootPath
	}
	return p + "/"
}
