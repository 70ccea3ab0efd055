package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Concerto 2025", Sanitize("Concerto 2025"))
	assert.Equal(t, "AC&amp;DC", Sanitize("AC&DC"))
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", Sanitize("<b>bold</b>"))
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;ciao",
		Sanitize(`<script>alert("x")</script>ciao`))
}
