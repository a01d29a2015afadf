// ABOUTME: Tests for feed text helpers
// ABOUTME: Table-driven cases for entity decoding, tag stripping, images, links and truncation

package feedtext

import (
	"testing"
)

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Test&#39;s &amp; Title", "Test's & Title"},
		{"&lt;b&gt;", "<b>"},
		{"plain", "plain"},
		{"&quot;quoted&quot;", `"quoted"`},
		{"caf&eacute;", "café"},
	}

	for _, tc := range tests {
		if got := DecodeEntities(tc.in); got != tc.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitle(t *testing.T) {
	got := Title("  Test&#39;s\n &amp;   Title ")
	if got != "Test's & Title" {
		t.Errorf("Title() = %q", got)
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"inline tags", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"line break", "a<br>b", "a\nb"},
		{"entities decoded", "<p>Tom &amp; Jerry</p>", "Tom & Jerry"},
		{"script dropped", "x<script>alert(1)</script>y", "xy"},
		{"style dropped", "<style>p{}</style>text", "text"},
		{"whitespace collapsed", "<div>  a   b  </div>", "a b"},
		{"newlines inside text kept", "<div>a\nb</div>", "a\nb"},
		{"unclosed tag", "<p>dangling", "dangling"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripTags(tc.in); got != tc.want {
				t.Errorf("StripTags(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFirstImage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<p>x</p><img src="a.png"><img src="b.png">`, "a.png"},
		{`<img alt="none"><img src="c.jpg"/>`, "c.jpg"},
		{`<p>no images</p>`, ""},
	}

	for _, tc := range tests {
		if got := FirstImage(tc.in); got != tc.want {
			t.Errorf("FirstImage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLinks(t *testing.T) {
	got := Links(`<a href="http://a">a</a> text <a>none</a><a href="http://b">b</a>`)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Errorf("Links() = %v", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 8, "truncat…"},
		{"héllo wörld", 6, "héllo…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}

	for _, tc := range tests {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
