// Package testhelpers provides helpers for integration tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/kndndrj/dbeelink/adapters"
	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/format"
	"github.com/kndndrj/dbeelink/core/mock"
	"github.com/kndndrj/dbeelink/handler"
)

// GetContainerProvider returns the container provider type to use for the tests.
// If we detect podman is available, we use it, otherwise we use docker.
func GetContainerProvider() testcontainers.ProviderType {
	if _, err := exec.LookPath("podman"); err == nil {
		fmt.Println("Podman detected. Remember to set TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED=true;")
		return testcontainers.ProviderPodman
	}
	return testcontainers.ProviderDocker
}

// NewHandler returns a handler over the real adapters serving sources.
func NewHandler(sources []*core.SourceParams, opts ...core.StatementOption) *handler.Handler {
	logger := new(mock.Logger)
	manager := adapters.NewManager(
		adapters.WithSources(sources...),
		adapters.WithManagerLogger(logger),
	)

	return handler.New(nil, logger, core.NewRegistry(manager, core.WithRegistryLogger(logger)), opts...)
}

// CSV drains the stream and renders it as csv, NULL being an empty field.
func CSV(t *testing.T, stream core.ResultStream) string {
	t.Helper()

	res := new(core.Result)
	require.NoError(t, res.SetIter(stream))

	out, err := res.Format(format.NewCSV(), 0, -1)
	require.NoError(t, err)
	return string(out)
}

// GetTestDataPath returns the path to the testdata directory.
func GetTestDataPath() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	return filepath.Join(filepath.Dir(currentFile), "../testdata"), nil
}

// GetTestDataFile returns a file from the testdata directory.
func GetTestDataFile(filename string) (*os.File, error) {
	testDataPath, err := GetTestDataPath()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(testDataPath, filename)
	return os.Open(path)
}
