// Package classify decides whether a regular file can be captured as text.
package classify

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Class is the verdict for a candidate file.
type Class int

const (
	Normal      Class = iota // Capture the file
	Binary                   // Denylisted extension or NUL byte in the sniffed prefix
	TooLarge                 // On-disk size above the safety limit
	TooLongPath              // Relative path longer than the path limit
)

func (c Class) String() string {
	switch c {
	case Normal:
		return "normal"
	case Binary:
		return "binary"
	case TooLarge:
		return "too large"
	case TooLongPath:
		return "path too long"
	default:
		return "unknown"
	}
}

const (
	// DefaultSniffLen is how many leading bytes are inspected for a NUL byte.
	DefaultSniffLen = 8192
	// DefaultSafetyLimit is the fixed size ceiling applied inside file handling,
	// independent of the walk's configurable size filter.
	DefaultSafetyLimit int64 = 1_000_000
	// DefaultMaxPathLen is the longest relative path, in characters, accepted.
	DefaultMaxPathLen = 200
)

// binaryExtensions are always Binary, whatever their content looks like.
var binaryExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "tiff": {},
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {},
	"zip": {}, "tar": {}, "gz": {}, "rar": {}, "7z": {},
	"exe": {}, "dll": {}, "so": {}, "dylib": {}, "bin": {},
	"mp3": {}, "mp4": {}, "wav": {}, "avi": {}, "mov": {},
}

// Classifier applies the checks in a fixed order: path length, binary, size.
type Classifier struct {
	SniffLen    int
	SafetyLimit int64
	MaxPathLen  int
	Logger      *zap.Logger
}

// New returns a Classifier with the default thresholds.
func New(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		SniffLen:    DefaultSniffLen,
		SafetyLimit: DefaultSafetyLimit,
		MaxPathLen:  DefaultMaxPathLen,
		Logger:      logger,
	}
}

// Classify inspects the file at path whose root-relative path is rel.
// The path length check happens before any file I/O.
func (c *Classifier) Classify(path, rel string) Class {
	if c.PathTooLong(rel) {
		return TooLongPath
	}
	if c.IsBinary(path) {
		return Binary
	}
	if c.IsTooLarge(path) {
		return TooLarge
	}
	return Normal
}

// PathTooLong reports whether rel exceeds the configured length in characters.
func (c *Classifier) PathTooLong(rel string) bool {
	return utf8.RuneCountInString(rel) > c.MaxPathLen
}

// IsBinary reports whether the file is binary. A denylisted extension always
// is. Otherwise the leading bytes are sniffed for a NUL; an empty file is not
// binary, and a file that cannot be opened or read is treated as binary.
func (c *Classifier) IsBinary(path string) bool {
	if HasBinaryExtension(path) {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		c.Logger.Debug("cannot open file for sniffing", zap.String("path", path), zap.Error(err))
		return true
	}
	defer f.Close()

	buf := make([]byte, c.SniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		c.Logger.Debug("cannot read file for sniffing", zap.String("path", path), zap.Error(err))
		return true
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}

// IsTooLarge reports whether the file's current size exceeds the safety
// limit. Metadata failures are not treated as too large.
func (c *Classifier) IsTooLarge(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		c.Logger.Warn("couldn't get metadata", zap.String("path", path), zap.Error(err))
		return false
	}
	return info.Size() > c.SafetyLimit
}

// HasBinaryExtension reports whether path ends in a denylisted extension,
// compared case-insensitively.
func HasBinaryExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	_, ok := binaryExtensions[strings.ToLower(ext)]
	return ok
}
