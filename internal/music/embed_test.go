package music

import "testing"

func TestEnsureEmbedURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "track-link",
			in:   "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "playlist-link",
			in:   "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			want: "https://open.spotify.com/embed/playlist/37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name: "album-link",
			in:   "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE",
			want: "https://open.spotify.com/embed/album/6dVIqQ8qmQ5GBnJ9shOYGE",
		},
		{
			name: "strips-si-parameter",
			in:   "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abcdef123456",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "no-scheme",
			in:   "open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "intl-path",
			in:   "https://open.spotify.com/intl-pt/track/4uLU6hMCjMI75M1A2tKUQC",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "uri-scheme",
			in:   "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "uri-playlist",
			in:   "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			want: "https://open.spotify.com/embed/playlist/37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name: "already-embed",
			in:   "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
			want: "https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name: "unrecognized-passthrough",
			in:   "https://example.com/some/song",
			want: "https://example.com/some/song",
		},
		{
			name: "plain-text-passthrough",
			in:   "not a link at all",
			want: "not a link at all",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "whitespace-only",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := EnsureEmbedURL(tt.in)
			if got != tt.want {
				t.Fatalf("EnsureEmbedURL(%q) = %q, want %q", tt.in, got, tt.want)
			}

			// 幂等：归一化结果再归一化保持不变
			if again := EnsureEmbedURL(got); again != got {
				t.Fatalf("EnsureEmbedURL not idempotent: %q -> %q", got, again)
			}
		})
	}
}
