package domain

import "errors"

var (
	// ErrLocationNotFound signals a named location selector with no match in history.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoLocationHistory signals a most-recent selector against empty history.
	ErrNoLocationHistory = errors.New("no location history")
	// ErrAssimilationFailed signals that the assimilator could not parse the calc directory.
	ErrAssimilationFailed = errors.New("assimilation failed")
	// ErrSerializationFailed signals that a payload could not be encoded.
	ErrSerializationFailed = errors.New("serialization failed")
	// ErrBlobStoreUnavailable signals a blob store write failure.
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	// ErrDocumentStoreUnavailable signals a document store connection or write failure.
	ErrDocumentStoreUnavailable = errors.New("document store unavailable")
	// ErrMalformedStoreConfig signals unusable store credentials or connection parameters.
	ErrMalformedStoreConfig = errors.New("malformed store config")
	// ErrLocalWriteFailed signals a failure writing the local fallback file.
	ErrLocalWriteFailed = errors.New("local write failed")
)
