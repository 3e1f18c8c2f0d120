package pixel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
)

// ErrNoPixelID is returned when no pixel id is configured.
var ErrNoPixelID = errors.New("pixel id is not configured")

const defaultSDKURL = "https://connect.facebook.net/en_US/fbevents.js"

var bootstrapTemplate = template.Must(template.New("pixel.js").Parse(
	`!function(f,b,e,v,n,t,s){if(f.fbq)return;n=f.fbq=function(){n.callMethod?` +
		`n.callMethod.apply(n,arguments):n.queue.push(arguments)};if(!f._fbq)f._fbq=n;` +
		`n.push=n;n.loaded=!0;n.version='2.0';n.queue=[];t=b.createElement(e);t.async=!0;` +
		`t.src=v;s=b.getElementsByTagName(e)[0];s.parentNode.insertBefore(t,s)}` +
		`(window,document,'script',{{.SDKURL}});
fbq('init',{{.PixelID}});
`))

// BootstrapScript renders the fbq loader initialized for pixelID.
func BootstrapScript(pixelID string) ([]byte, error) {
	if pixelID == "" {
		return nil, ErrNoPixelID
	}

	quotedID, err := json.Marshal(pixelID)
	if err != nil {
		return nil, fmt.Errorf("encode pixel id: %w", err)
	}
	quotedURL, err := json.Marshal(defaultSDKURL)
	if err != nil {
		return nil, fmt.Errorf("encode sdk url: %w", err)
	}

	var buf bytes.Buffer
	if err = bootstrapTemplate.Execute(&buf, struct {
		PixelID string
		SDKURL  string
	}{
		PixelID: string(quotedID),
		SDKURL:  string(quotedURL),
	}); err != nil {
		return nil, fmt.Errorf("render pixel bootstrap: %w", err)
	}
	return buf.Bytes(), nil
}
