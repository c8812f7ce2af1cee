// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package feed

import (
	"time"

	"github.com/tomtom215/blogflock/internal/config"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title> Example Blog </title>
  <link>https://example.com/blog/</link>
  <description>Notes from example</description>
  <itunes:author>Jo Example</itunes:author>
  <itunes:image href="https://example.com/cover.png"/>
  <item>
    <title>First post</title>
    <link>https://example.com/blog/first</link>
    <guid>urn:example:1</guid>
    <description>Short summary</description>
    <content:encoded><![CDATA[<p>Full body</p>]]></content:encoded>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second post</title>
    <link>https://example.com/blog/second</link>
    <description>Only a description</description>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <subtitle>An atom feed</subtitle>
  <id>urn:uuid:feed</id>
  <updated>2026-03-02T10:00:00Z</updated>
  <author><name>Sam Writer</name></author>
  <entry>
    <title>Entry one</title>
    <id>urn:uuid:entry-1</id>
    <link href="https://atom.example:8443/posts/1"/>
    <updated>2026-03-01T09:30:00Z</updated>
    <summary>Entry summary</summary>
  </entry>
</feed>`

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		UserAgent:            "blogflock-test",
		RequestTimeout:       2 * time.Second,
		DiscoveryTimeout:     2 * time.Second,
		MaxBodyBytes:         1 << 20,
		AllowPrivateNetworks: true,
		CacheTTL:             time.Minute,
		CacheSize:            16,
	}
}
