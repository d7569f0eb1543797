// internal/storage/archive/factory_test.go
package archive

import (
	"errors"
	"testing"

	"github.com/newthinker/prism/internal/config"
	"github.com/newthinker/prism/internal/core"
)

func TestNew_LocalFS(t *testing.T) {
	store, err := New(config.StorageConfig{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := store.(*LocalFS); !ok {
		t.Errorf("store = %T, want *LocalFS", store)
	}
}

func TestNew_S3(t *testing.T) {
	store, err := New(config.StorageConfig{
		Type: "s3",
		S3:   config.S3Config{Bucket: "prism-reports", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := store.(*S3Storage); !ok {
		t.Errorf("store = %T, want *S3Storage", store)
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "tape"})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}
