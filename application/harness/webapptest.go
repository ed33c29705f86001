// Package harness manages the per-test browser lifecycle: driver startup,
// network capture, failure screenshots and HAR export.
package harness

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pagewright/domain/entities"
	"pagewright/domain/interfaces"
	browserinfra "pagewright/infrastructure/browser"
	"pagewright/infrastructure/storage"
)

var loadEnvOnce sync.Once

// WebAppTest is the base environment for testing a web application. Setup
// starts the browser; cleanups quit it and capture a screenshot first when
// the test failed.
type WebAppTest struct {
	T       *testing.T
	Browser interfaces.Browser
	Logger  *logrus.Logger

	harStore *storage.HARStore
}

// Setup - launches the environment-selected browser driver for the test.
// The test is skipped when no driver can start, so suites stay runnable on
// machines without a browser installed.
func Setup(t *testing.T) *WebAppTest {
	t.Helper()

	// .env file is optional; real environment variables win either way
	loadEnvOnce.Do(func() { _ = godotenv.Load() })

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	b, err := browserinfra.Launch(logger)
	if err != nil {
		t.Skipf("browser driver not available: %v", err)
	}

	w := &WebAppTest{
		T:        t,
		Browser:  b,
		Logger:   logger,
		harStore: storage.NewHARStore(logger),
	}

	// Cleanups run LIFO: the screenshot is registered last so it is taken
	// before the browser quits
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			logger.WithError(err).Debug("failed to close browser")
		}
	})
	t.Cleanup(func() {
		if t.Failed() {
			browserinfra.SaveScreenshot(logger, b, t.Name())
		}
	})

	return w
}

// UniqueID - returns a random identifier for isolating test data
func (w *WebAppTest) UniqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SaveHARFile - writes the traffic captured so far to <HAR_DIR>/<name>.har.
// Drivers without network capture produce a skeleton archive, so callers
// never need to care which driver is running.
func (w *WebAppTest) SaveHARFile(name string) (string, error) {
	var doc *entities.HAR
	if recorder, ok := w.Browser.(interfaces.NetworkRecorder); ok {
		doc = entities.NewHAR(recorder.HAREntries())
	} else {
		doc = entities.NewHAR(nil)
	}
	return w.harStore.Save(doc, name)
}
