package service

import (
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// avatarPalette is the set of background colours for initials avatars.
var avatarPalette = []string{
	"#877EFF", "#FF5A5A", "#24C6DC", "#FFB620", "#5D5FEF", "#3CB371", "#E4572E", "#7878A3",
}

// AvatarService builds initials avatars for profiles without an uploaded image.
type AvatarService struct {
	baseURL string
}

// NewAvatarService creates a new AvatarService.
func NewAvatarService(baseURL string) *AvatarService {
	return &AvatarService{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// InitialsURL returns the avatar URL for name.
func (s *AvatarService) InitialsURL(name string) string {
	return s.baseURL + "/api/v1/avatars/initials?name=" + url.QueryEscape(strings.TrimSpace(name))
}

// Initials returns up to two uppercase initials for name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.'
	}) {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// RenderInitials draws a square SVG avatar with the initials of name.
// size is clamped to [16, 512].
func (s *AvatarService) RenderInitials(name string, size int) []byte {
	switch {
	case size <= 0:
		size = 128
	case size < 16:
		size = 16
	case size > 512:
		size = 512
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	color := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	half := size / 2
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="%d" height="%d" fill="%s"/>`+
			`<text x="%d" y="%d" dy=".35em" text-anchor="middle" font-family="Inter, sans-serif" font-size="%d" font-weight="600" fill="#FFFFFF">%s</text>`+
			`</svg>`,
		size, size, size, size,
		size, size, color,
		half, half, size*2/5, html.EscapeString(Initials(name)),
	))
}
