package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a…@x….com", MaskEmail(" Alice@XY.com "))
	assert.Equal(t, "a@x.com", MaskEmail("a@x.com"))
	assert.Equal(t, "", MaskEmail(""))
	assert.Equal(t, "***", MaskEmail("ab"))
	assert.Equal(t, "n…e", MaskEmail("nomailhere"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "eyJhbGci…", MaskToken("eyJhbGciOiJFZERTQSJ9.payload.sig"))
}
