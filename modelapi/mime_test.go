package modelapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fluidinfo/models"
)

func TestValidateMimeType(t *testing.T) {
	valid := []string{
		"text/plain",
		"application/json",
		"image/svg+xml",
		"text/plain; charset=utf-8",
		"multipart/form-data; boundary=xyz; charset=ascii",
	}
	for _, m := range valid {
		assert.NoError(t, validateMimeType(m), m)
	}

	invalid := []string{
		"",
		"text",
		"/plain",
		"text/",
		"text plain",
		"text/pla in",
		"text/plain;;",
		"te<xt/plain",
	}
	for _, m := range invalid {
		err := validateMimeType(m)
		assert.Error(t, err, m)
		kind, ok := models.KindOf(err)
		assert.True(t, ok, m)
		assert.Equal(t, models.KindBadRequest, kind, m)
	}
}
