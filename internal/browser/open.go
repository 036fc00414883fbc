// Package browser hands URLs to the desktop's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// Open opens the specified URL in the user's default browser.
func Open(u string) error {
	cmd, err := command(runtime.GOOS, u)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func command(goos, u string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", u), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", u), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

// mapZoom is close enough to tell neighbouring towers apart.
const mapZoom = 17

// MapURL returns an OpenStreetMap link centred on c with a marker.
func MapURL(c domain.Coordinates) string {
	lat := strconv.FormatFloat(c.Lat, 'f', 6, 64)
	lng := strconv.FormatFloat(c.Lng, 'f', 6, 64)
	q := url.Values{}
	q.Set("mlat", lat)
	q.Set("mlon", lng)
	return fmt.Sprintf("https://www.openstreetmap.org/?%s#map=%d/%s/%s", q.Encode(), mapZoom, lat, lng)
}
