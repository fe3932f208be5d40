package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	raw := string(compose("shop@example.com", Message{To: "a@b.c", Subject: "Order confirmation 1", HTML: "<p>ok</p>"}))

	assert.Equal(t, "From: shop@example.com\r\n"+
		"To: a@b.c\r\n"+
		"Subject: Order confirmation 1\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"<p>ok</p>", raw)
}
