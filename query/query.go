// Package query keeps the feed's search state and the address bar in step.
package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Address parts read and written by the synchronizer.
const (
	RootPath   = "/"
	PostsPath  = "/posts"
	SearchPath = "/posts/search"

	ParamPage   = "page"
	ParamSearch = "searchQuery"
	ParamTags   = "tags"

	// NoText stands in for empty search text when only tags are given.
	NoText = "none"
)

// SearchQuery is the committed filter and page parsed from the address.
type SearchQuery struct {
	Text string
	Tags []string
	Page int
}

// Filtered reports whether text or tags narrow the feed.
func (q SearchQuery) Filtered() bool {
	return strings.TrimSpace(q.Text) != "" || len(q.Tags) > 0
}

// Equal compares text, tags (in order) and page.
func (q SearchQuery) Equal(o SearchQuery) bool {
	return q.Text == o.Text && q.Page == o.Page && slices.Equal(q.Tags, o.Tags)
}

// Parse reads page, searchQuery and tags from an address such as
// "/posts/search?searchQuery=x&tags=a,b". A missing or invalid page is 1.
func Parse(address string) SearchQuery {
	q := SearchQuery{Page: 1}
	u, err := url.Parse(address)
	if err != nil {
		return q
	}
	vals := u.Query()
	if n, err := strconv.Atoi(vals.Get(ParamPage)); err == nil && n > 0 {
		q.Page = n
	}
	if text := vals.Get(ParamSearch); text != NoText {
		q.Text = text
	}
	for _, t := range strings.Split(vals.Get(ParamTags), ",") {
		if t != "" {
			q.Tags = append(q.Tags, t)
		}
	}
	return q
}

// SearchAddress builds the filtered address. Callers check that text or
// tags are present; empty text is written as "none".
func SearchAddress(text string, tags []string) string {
	if text == "" {
		text = NoText
	}
	return SearchPath + "?" + ParamSearch + "=" + encodeURIComponent(text) +
		"&" + ParamTags + "=" + encodeURIComponent(strings.Join(tags, ","))
}

// PageAddress builds the unfiltered address for page n.
func PageAddress(n int) string {
	return PostsPath + "?" + ParamPage + "=" + strconv.Itoa(n)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
// so addresses match what a browser would produce.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
