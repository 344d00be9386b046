// Package shared holds code used across the webmvc packages that belongs to
// no single layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler, a slog handler that records log records for assertions
//	- RecordingRenderer, a dispatch renderer that records render instructions
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    // pass logger to the component under test
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "route registered")
//	}
package shared
