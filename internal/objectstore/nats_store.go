package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/book-expert/text-speech/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const headerContentType = "Content-Type"

// NatsObjectStore implements core.ObjectStore using NATS JetStream object
// stores, one per bucket. Buckets are created on first use and bound to when
// they already exist.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext

	mu      sync.Mutex
	buckets map[string]nats.ObjectStore
}

// NewNatsObjectStore creates a store on top of a JetStream context.
func NewNatsObjectStore(jetstreamContext nats.JetStreamContext) *NatsObjectStore {
	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		buckets:          make(map[string]nats.ObjectStore),
	}
}

// GetObject retrieves an object's content.
func (n *NatsObjectStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	store, err := n.bucket(bucket)
	if err != nil {
		return nil, err
	}

	obj, err := store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// PutObject stores an object. The content type travels as a header and the
// metadata as object metadata.
func (n *NatsObjectStore) PutObject(_ context.Context, bucket string, obj core.Object) error {
	store, err := n.bucket(bucket)
	if err != nil {
		return err
	}

	headers := nats.Header{}
	if obj.ContentType != "" {
		headers.Set(headerContentType, obj.ContentType)
	}

	_, err = store.Put(&nats.ObjectMeta{
		Name:        obj.Key,
		Description: "",
		Headers:     headers,
		Metadata:    obj.Metadata,
		Opts:        nil,
	}, bytes.NewReader(obj.Body))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", obj.Key, bucket, err)
	}

	return nil
}

func (n *NatsObjectStore) bucket(name string) (nats.ObjectStore, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if store, ok := n.buckets[name]; ok {
		return store, nil
	}

	// Use a "create-first" approach.
	store, err := n.jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Storage for the %s bucket.", name),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", name, err)
		}

		store, err = n.jetstreamContext.ObjectStore(name)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", name, err)
		}
	}

	n.buckets[name] = store

	return store, nil
}
