// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ExcerptWords is the excerpt length used for post views.
const ExcerptWords = 50

// UntitledBlog is the last-resort display title.
const UntitledBlog = "Untitled Blog"

// BlogView is a blog as displayed, with list overrides applied.
type BlogView struct {
	HashID      string `json:"hash_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Author      string `json:"author"`
	FeedURL     string `json:"feed_url"`
	SiteURL     string `json:"site_url"`

	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
	PostsLastMonth  int        `json:"posts_last_month"`
}

// ListRef identifies the list a post was selected through.
type ListRef struct {
	HashID string `json:"hash_id"`
	Name   string `json:"name"`
}

// PostView is a post as displayed. HashID is left empty by DerivePostView
// and filled by the caller's identifier codec.
type PostView struct {
	HashID      string    `json:"hash_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Excerpt     string    `json:"excerpt"`
	PublishedAt time.Time `json:"published_at"`
	Bookmarked  bool      `json:"bookmarked"`
	Blog        BlogView  `json:"blog"`
	List        *ListRef  `json:"list,omitempty"`
}

// DeriveBlogView applies membership overrides (which may be nil) to blog.
func DeriveBlogView(blog *Blog, membership *ListBlog) BlogView {
	var custom ListBlog
	if membership != nil {
		custom = *membership
	}

	title := firstNonEmpty(custom.CustomTitle, blog.AutoTitle, hostname(blog.SiteURL))
	if title == "" {
		title = UntitledBlog
	}

	return BlogView{
		HashID:          blog.HashID,
		Title:           title,
		Description:     firstNonEmpty(custom.CustomDescription, blog.AutoDescription),
		ImageURL:        firstNonEmpty(custom.CustomImageURL, blog.AutoImageURL),
		Author:          firstNonEmpty(custom.CustomAuthor, blog.AutoAuthor),
		FeedURL:         blog.FeedURL,
		SiteURL:         blog.SiteURL,
		LastPublishedAt: blog.LastPublishedAt,
		PostsLastMonth:  blog.PostsLastMonth,
	}
}

// DerivePostView builds the display form of a read-side row.
func DerivePostView(row *PostRow) PostView {
	view := PostView{
		Title:       row.Post.Title,
		URL:         row.Post.URL,
		Excerpt:     Excerpt(row.Post.Content, ExcerptWords),
		PublishedAt: row.Post.PublishedAt,
		Bookmarked:  row.Bookmarked,
		Blog:        DeriveBlogView(&row.Blog, row.Membership),
	}
	if row.List != nil {
		view.List = &ListRef{HashID: row.List.HashID, Name: row.List.Name}
	}
	return view
}

// Excerpt strips markup from html and returns its first n words, with an
// ellipsis appended when words were dropped.
func Excerpt(html string, n int) string {
	words := strings.Fields(plainText(html))
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

func plainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	// Block boundaries would otherwise glue adjacent words together.
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return doc.Text()
}

func hostname(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
