package helpers

import (
	"strings"

	"github.com/mdp/qrterminal/v3"
)

// QRCode renders text as a half-block terminal QR code
func QRCode(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &b)
	return b.String()
}
