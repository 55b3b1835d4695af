package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex digits, enough to tell runs apart in logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Domain-specific hash types
type (
	ConfigHash  Hash
	DatasetHash Hash
)

func NewConfigHash(data []byte) ConfigHash { return ConfigHash(NewHash(data)) }

func (h ConfigHash) String() string  { return Hash(h).String() }
func (h DatasetHash) String() string { return Hash(h).String() }

// DatasetRow is the view of a record the dataset hash is computed over
type DatasetRow interface {
	HashKey() string
}

// ComputeDatasetHash hashes rows in order. Floats are rendered with the
// shortest exact representation, so equal datasets hash equally regardless
// of the file format they were loaded from.
func ComputeDatasetHash[R DatasetRow](rows []R) DatasetHash {
	var data strings.Builder
	for _, r := range rows {
		data.WriteString(r.HashKey())
		data.WriteByte('\n')
	}
	return DatasetHash(NewHash([]byte(data.String())))
}

// FormatFloat renders f for hashing
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// JoinKey joins hash key fields with a separator that cannot appear in them
func JoinKey(fields ...any) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case float64:
			parts[i] = FormatFloat(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "\x1f")
}
