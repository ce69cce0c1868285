package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Banner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.Banner("Release pipeline: 140.0.7339.80", "Steps: fetch → stamp")

	out := buf.String()
	assert.Contains(t, out, "Release pipeline: 140.0.7339.80")
	assert.Contains(t, out, "Steps: fetch → stamp")
}

func TestPrinter_StepHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.StepHeader(2, 5, "stamp")
	assert.Contains(t, buf.String(), "[2/5] stamp")
}

func TestPrinter_StatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.Success("published 140.0.7339.80")
	p.Failure("stamp failed")
	p.Info("resuming from stage stamped")

	out := buf.String()
	assert.Contains(t, out, "✓ published 140.0.7339.80")
	assert.Contains(t, out, "✗ stamp failed")
	assert.Contains(t, out, "resuming from stage stamped")
}

func TestPrinter_ToolLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.ToolLine("syncing projects", false)
	p.ToolLine("warning: slow object store", true)

	out := buf.String()
	assert.Contains(t, out, "  syncing projects")
	assert.Contains(t, out, "! ")
	assert.Contains(t, out, "warning: slow object store")
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.Summary("140.0.7339.80", []StepResult{
		{Name: "fetch", Duration: 90 * time.Second, OK: true},
		{Name: "export", Duration: 30 * time.Second, OK: true},
	}, 2*time.Minute)

	out := buf.String()
	assert.Contains(t, out, "PIPELINE COMPLETE")
	assert.Contains(t, out, "Tag: 140.0.7339.80")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "Total: 2m0s")
}

func TestPrinter_Summary_Failure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf)

	p.Summary("140.0.7339.80", []StepResult{
		{Name: "fetch", Duration: time.Second, OK: true},
		{Name: "stamp", Duration: time.Second, OK: false},
	}, 2*time.Second)

	assert.Contains(t, buf.String(), "PIPELINE FAILED")
}
