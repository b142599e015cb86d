package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the configured disks. The local disk is always available;
// the s3 disk only when S3_BUCKET is set.
func Connect() {
	managerMu.Lock()
	defer managerMu.Unlock()

	defaultDisk = config.StorageDefault()
	disks["local"] = NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())

	if config.StorageS3Bucket() == "" {
		return
	}
	d, err := NewS3Disk(context.Background(), S3Config{
		Bucket:   config.StorageS3Bucket(),
		Region:   config.StorageS3Region(),
		Key:      config.StorageS3Key(),
		Secret:   config.StorageS3Secret(),
		Endpoint: config.StorageS3Endpoint(),
		BaseURL:  config.StorageS3URL(),
	})
	if err != nil {
		logger.Warn("storage: s3 disk disabled", "error", err)
		return
	}
	disks["s3"] = d
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	managerMu.RLock()
	defer managerMu.RUnlock()

	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the STORAGE_DISK disk, falling back to local.
func Default() Disk {
	if d, err := Use(defaultDisk); err == nil {
		return d
	}
	if d, err := Use("local"); err == nil {
		return d
	}
	return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
}

// RegisterDisk plugs in a custom Disk, e.g. a temp dir in tests.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}
