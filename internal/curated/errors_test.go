package curated_test

import (
	"errors"
	"testing"

	"github.com/jetsetilly/crowdcade/internal/curated"
	"github.com/stretchr/testify/assert"
)

func TestCategoryRoundtrip(t *testing.T) {
	err := curated.Errorf(curated.Save, "rotate: %s", "disk full")
	assert.Equal(t, curated.Save, curated.CategoryOf(err))
	assert.True(t, curated.Is(err, curated.Save))
	assert.False(t, curated.Is(err, curated.Admin))
}

func TestUncategorisedForPlainErrors(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, curated.Uncategorised, curated.CategoryOf(err))
}

func TestOpPrefixesMessage(t *testing.T) {
	err := curated.Op(curated.Admin, "requireBearer", "missing token")
	assert.Contains(t, err.Error(), "requireBearer")
	assert.Contains(t, err.Error(), "missing token")
}

func TestWrapPreservesErrorsIs(t *testing.T) {
	cause := errors.New("disk full")
	err := curated.Errorf(curated.Save, "rotate: %w", cause)
	assert.True(t, errors.Is(err, cause))
}
