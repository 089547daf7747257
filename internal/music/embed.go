package music

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// open.spotify.com/track/abc123?si=xyz 或 open.spotify.com/intl-pt/track/abc123
	spotifyLinkPattern = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]{2}/)?(track|playlist|album)/([a-zA-Z0-9]+)`)
	// spotify:track:abc123
	spotifyURIPattern = regexp.MustCompile(`^spotify:(track|playlist|album):([a-zA-Z0-9]+)$`)
	// 已经是 embed 形式的链接
	spotifyEmbedPattern = regexp.MustCompile(`(?:https?://)?open\.spotify\.com/embed/(track|playlist|album)/([a-zA-Z0-9]+)`)
)

// EnsureEmbedURL 把用户提交的音乐链接归一化为可嵌入播放器的标准形式。
// 无法识别的输入原样返回；对已归一化的链接幂等。
// 附带的查询参数（如 ?si=）会破坏 embed 播放器，统一剥离。
func EnsureEmbedURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if match := spotifyEmbedPattern.FindStringSubmatch(trimmed); match != nil {
		return buildEmbedURL(match[1], match[2])
	}

	if match := spotifyURIPattern.FindStringSubmatch(trimmed); match != nil {
		return buildEmbedURL(match[1], match[2])
	}

	if match := spotifyLinkPattern.FindStringSubmatch(trimmed); match != nil {
		return buildEmbedURL(match[1], match[2])
	}

	return trimmed
}

func buildEmbedURL(kind, id string) string {
	return fmt.Sprintf("https://open.spotify.com/embed/%s/%s", kind, id)
}
