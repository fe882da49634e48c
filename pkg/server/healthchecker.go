package server

import (
	"context"
	"os"
)

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type OkHealthChecker struct {
}

func NewOkHealthChecker() *OkHealthChecker {
	return &OkHealthChecker{}
}

func (hc *OkHealthChecker) Healthy(ctx context.Context) bool {
	return true
}

// DirHealthChecker is healthy while its directory exists.
type DirHealthChecker struct {
	dir string
}

func NewDirHealthChecker(dir string) *DirHealthChecker {
	return &DirHealthChecker{dir: dir}
}

func (hc *DirHealthChecker) Healthy(ctx context.Context) bool {
	fi, err := os.Stat(hc.dir)
	return err == nil && fi.IsDir()
}
