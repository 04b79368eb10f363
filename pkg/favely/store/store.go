// Package store provides typed repositories over the MongoDB collections.
package store

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index
	ErrDuplicate = errors.New("duplicate document")
)

// mapWriteErr converts driver-level write errors to store sentinels
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// mapReadErr converts driver-level read errors to store sentinels
func mapReadErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
