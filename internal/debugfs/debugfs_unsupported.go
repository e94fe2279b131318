//go:build !linux
// +build !linux

package debugfs

import "fmt"

// StateProvider mirrors the linux build's interface so callers can
// reference it without a build-tag branch of their own.
type StateProvider interface {
	ParamCacheSnapshot() string
	ShadowSnapshot() string
	RenderRegistrySnapshot() string
	StagingSnapshot() string
}

// Mount is unavailable on non-Linux builds because debugfs depends on go-fuse.
func Mount(mountPoint string, provider StateProvider) (func(), error) {
	return nil, fmt.Errorf("debugfs mount is only supported on linux builds")
}
