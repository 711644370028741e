package sysinfo

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	desc := Describe()
	assert.True(t, strings.HasPrefix(desc, runtime.GOOS))
}

func TestAvailableTools(t *testing.T) {
	found := AvailableTools("go-binary-that-does-not-exist-anywhere")
	assert.Empty(t, found)
}
