package paths_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/crowdcade/internal/paths"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSaveDirEndsInSaves(t *testing.T) {
	dir := paths.DefaultSaveDir()
	assert.True(t, strings.HasSuffix(dir, "saves"))
}
