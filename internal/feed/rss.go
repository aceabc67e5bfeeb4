// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package feed builds the RSS 2.0 feed for published posts.
package feed

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/olegiv/prosa/internal/store"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// Site describes the channel-level feed metadata.
type Site struct {
	Name        string
	Description string
	BaseURL     string
}

// WriteRSS encodes the posts as an RSS 2.0 document, XML header included.
func WriteRSS(w io.Writer, site Site, posts []store.PublicPostRow) error {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		pubDate := ""
		if p.PublishedAt.Valid {
			pubDate = p.PublishedAt.Time.Format(time.RFC1123Z)
		}
		postURL := site.BaseURL + "/post/" + p.Slug
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Excerpt,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        site.BaseURL,
			Description: site.Description,
			Items:       items,
		},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(feed)
}
