package console

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("info")

	Debugf("hidden %d", 1)
	Infof("visible %d", 2)
	Successf("done %s", "step")
	Warningf("careful")

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "done step")
	assert.Contains(t, out, "careful")
}

func TestSectionHeader(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("info")

	Section("Install")

	assert.Contains(t, buf.String(), "Install")
	assert.Contains(t, buf.String(), "====")
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("no-such-level")

	Debugf("hidden")
	Infof("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
