package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// Checksum returns the lowercase hex MD5 of the whole stream. The stream is
// rewound to the start before hashing and again afterwards, also on error.
func Checksum(r io.ReadSeeker) (sum string, err error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	defer func() {
		if _, serr := r.Seek(0, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum computes the stream checksum and compares it with declared.
// The comparison is case-sensitive.
func VerifyChecksum(r io.ReadSeeker, declared string) (computed string, ok bool, err error) {
	computed, err = Checksum(r)
	if err != nil {
		return "", false, err
	}
	return computed, computed == declared, nil
}
