// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package feed

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// sniffLen is how much of a body is inspected to decide whether it is a feed.
const sniffLen = 512

var feedPrefixes = [][]byte{[]byte("<?xml"), []byte("<rss"), []byte("<feed")}

// looksLikeFeed reports whether body starts, ignoring a UTF-8 BOM and
// leading whitespace, with an XML declaration or an rss/feed root element.
func looksLikeFeed(body []byte) bool {
	if len(body) > sniffLen {
		body = body[:sniffLen]
	}
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	body = bytes.TrimLeftFunc(body, unicode.IsSpace)
	for _, prefix := range feedPrefixes {
		if len(body) >= len(prefix) && bytes.EqualFold(body[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

var feedMediaTypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
	"application/xml":       true,
	"text/xml":              true,
}

var feedSuffixes = []string{
	"/feed", "/feed/", "/rss", "/rss/", ".rss", ".atom",
	"/atom.xml", "/feed.xml", "/index.xml", "/rss.xml",
}

// discoverFeeds returns feed URLs advertised by an HTML page in document
// order. Alternate <link> tags win; same-host <a> tags with a common feed
// path are the fallback.
func discoverFeeds(html []byte, pageURL *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := pageURL.Parse(strings.TrimSpace(href)); err == nil {
			base = u
		}
	}

	var found []string
	seen := make(map[string]bool)
	add := func(u *url.URL) {
		s := u.String()
		if !seen[s] {
			seen[s] = true
			found = append(found, s)
		}
	}

	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		if !hasToken(s.AttrOr("rel", ""), "alternate") {
			return
		}
		mediaType := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}
		if !feedMediaTypes[mediaType] {
			return
		}
		if u := resolveHTTP(base, s.AttrOr("href", "")); u != nil {
			add(u)
		}
	})
	if len(found) > 0 {
		return found
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		u := resolveHTTP(base, s.AttrOr("href", ""))
		if u == nil || !strings.EqualFold(u.Hostname(), pageURL.Hostname()) {
			return
		}
		if hasFeedSuffix(u.Path) {
			add(u)
		}
	})
	return found
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func hasFeedSuffix(path string) bool {
	path = strings.ToLower(path)
	for _, suffix := range feedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// resolveHTTP resolves href against base, keeping only http(s) results.
func resolveHTTP(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	u, err := base.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	u.Fragment = ""
	return u
}
