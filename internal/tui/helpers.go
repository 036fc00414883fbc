package tui

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// maxPhotoBytes bounds an attached image.
const maxPhotoBytes = 15 << 20

// formatTime renders a relative timestamp for the save indicator.
func formatTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// readPhoto loads an image file from disk. A leading ~ is expanded.
func readPhoto(path string) (*domain.Photo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("no file given")
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("readPhoto: home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("readPhoto: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filepath.Base(path))
	}
	if info.Size() > maxPhotoBytes {
		return nil, fmt.Errorf("%s is larger than %d MB", filepath.Base(path), maxPhotoBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("readPhoto: %w", err)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", filepath.Base(path), ct)
	}
	return &domain.Photo{
		FileName:    filepath.Base(path),
		ContentType: ct,
		Data:        data,
		TakenAt:     info.ModTime().UTC(),
	}, nil
}
