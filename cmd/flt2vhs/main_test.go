package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fltvhs/recorder/internal/convert"
)

func TestTally(t *testing.T) {
	results := []convert.Result{
		{VhsPath: "/out/falcon4.00.vhs", Duration: 120},
		{SourceFiles: []string{"falcon4.01.flt"}, Err: errors.New("corrupt")},
		{VhsPath: "/out/falcon4.02.vhs", Duration: 45.5},
	}

	converted, failures, durations := tally(results)
	assert.Equal(t, 2, converted)
	assert.Len(t, failures, 1)
	assert.Equal(t, float32(120), durations["falcon4.00"])
	assert.Equal(t, float32(45.5), durations["falcon4.02"])
}

func TestTallyEmpty(t *testing.T) {
	converted, failures, durations := tally(nil)
	assert.Zero(t, converted)
	assert.Empty(t, failures)
	assert.Empty(t, durations)
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "a.json", trimExt("a.json.gz"))
	assert.Equal(t, "falcon4.00", trimExt("falcon4.00.vhs"))
	assert.Equal(t, "plain", trimExt("plain"))
}
