// Package references stores one enrolled face image per principal.
//
// The object name is derived from the principal ("face_<principal>.jpg",
// path-escaped) so that each principal has a single well-known location.
// Enrollment overwrites it and reset deletes it. Backends: a local directory
// and an S3-compatible bucket.
package references

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/facekeeper/internal/face"
)

// Store persists encoded reference images.
type Store interface {
	Save(ctx context.Context, principal string, image []byte) error
	// Load returns common.ErrorNotFound when the principal is not enrolled.
	Load(ctx context.Context, principal string) ([]byte, error)
	// Delete is a no-op for a principal that is not enrolled.
	Delete(ctx context.Context, principal string) error
	// DeleteAll removes every reference and reports how many were removed.
	DeleteAll(ctx context.Context) (int, error)
}

const (
	namePrefix = "face_"
	nameSuffix = ".jpg"
)

func objectName(principal string) string {
	return namePrefix + url.PathEscape(principal) + nameSuffix
}

// Frames adapts a Store to the biometric gate's reference lookup.
type Frames struct {
	Store Store
}

func (f Frames) Load(ctx context.Context, principal string) (face.Frame, error) {
	data, err := f.Store.Load(ctx, principal)
	if err != nil {
		return face.Frame{}, err
	}

	frame := face.DecodeFrame(data)
	if !frame.Valid() {
		return face.Frame{}, fmt.Errorf("reference for %q is not a decodable image", principal)
	}
	return frame, nil
}
