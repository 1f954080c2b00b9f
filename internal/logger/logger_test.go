package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture routes log output to a buffer for the duration of the test.
func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose_Toggles(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_Verbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("fetch %s", "C2040") }, "[DEBUG] fetch C2040\n"},
		{"info", func() { Info("wrote %d files", 3) }, "[INFO] wrote 3 files\n"},
		{"warn", func() { Warn("layer %d dropped", 99) }, "[WARN] layer 99 dropped\n"},
		{"section", func() { Section("Import") }, "\n=== Import ===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevels_Quiet(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Warnw("layer dropped", "layer", 42)
	Section("Hidden")

	assert.Empty(t, buf.String())
}

func TestStructuredFields(t *testing.T) {
	buf := capture(t, true)

	Debugw("retrying request", "source", "jlcpcb", "attempt", 2)

	out := buf.String()
	assert.Regexp(t, `^\[DEBUG\] retrying request`, out)
	assert.Contains(t, out, `"source": "jlcpcb"`)
	assert.Contains(t, out, `"attempt": 2`)
}

func TestConcurrentToggle(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(n%2 == 0)
			Debug("concurrent %d", n)
			_ = IsVerbose()
		}(i)
	}
	wg.Wait()
}
