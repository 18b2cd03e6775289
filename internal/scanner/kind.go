package scanner

import (
	"path/filepath"
	"strings"
)

// Kind is the storage format of an input.
type Kind string

const (
	KindPlain Kind = "plain"
	KindGzip  Kind = "gzip"
	KindZstd  Kind = "zstd"
)

var compressionSuffixes = map[string]Kind{
	".gz":  KindGzip,
	".zst": KindZstd,
}

// DetectKind guesses the storage format from the file name.
func DetectKind(name string) Kind {
	if k, ok := compressionSuffixes[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}
	return KindPlain
}

// Stem strips the compression suffix and the extension from a file name:
// "foo.wcet.gz" and "foo.wcet" both give "foo".
func Stem(name string) string {
	if _, ok := compressionSuffixes[strings.ToLower(filepath.Ext(name))]; ok {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
