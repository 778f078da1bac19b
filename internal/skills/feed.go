package skills

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Feed is a parsed catalog export.
type Feed struct {
	Skills  []Skill
	Total   int
	Skipped int
}

// IDs returns the IDs of the valid records of the feed.
func (f Feed) IDs() []string {
	ids := make([]string, 0, len(f.Skills))
	for _, s := range f.Skills {
		ids = append(ids, s.ID)
	}
	return ids
}

type feedSkill struct {
	ID          any             `json:"id"`
	Name        any             `json:"name"`
	ShortDesc   any             `json:"shortDesc"`
	LongDesc    any             `json:"longDesc"`
	Author      any             `json:"author"`
	AuthorURL   any             `json:"authorUrl"`
	Stars       any             `json:"stars"`
	LastUpdated any             `json:"lastUpdated"`
	Command     any             `json:"command"`
	Tags        any             `json:"tags"`
	FileSHA     any             `json:"file_sha"`
	DownloadURL any             `json:"downloadUrl"`
	SEO         json.RawMessage `json:"seo_content"`
	SourceRepo  any             `json:"source_repo"`
	SourcePath  any             `json:"source_path"`
}

type feedSEO struct {
	Title       any `json:"seo_title"`
	Description any `json:"seo_description"`
}

// ParseFeed decodes a JSON array of skills as exported by the crawler.
// Records without an ID are skipped, loosely typed values are coerced and an
// unparsable date becomes now.
func ParseFeed(data []byte, now time.Time) (Feed, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Feed{}, fmt.Errorf("could not parse skills feed: %w", err)
	}
	return ParseRecords(raw, now)
}

// ParseRecords is ParseFeed for records that were already split, as in the
// body of a sync request.
func ParseRecords(raw []json.RawMessage, now time.Time) (Feed, error) {
	feed := Feed{Total: len(raw), Skills: make([]Skill, 0, len(raw))}
	for i, msg := range raw {
		var in feedSkill
		if err := json.Unmarshal(msg, &in); err != nil {
			return Feed{}, fmt.Errorf("could not parse skill %d: %w", i, err)
		}
		s, ok := in.skill(now)
		if !ok {
			feed.Skipped++
			continue
		}
		feed.Skills = append(feed.Skills, s)
	}
	return feed, nil
}

func (in feedSkill) skill(now time.Time) (Skill, bool) {
	id := str(in.ID)
	if id == "" {
		return Skill{}, false
	}
	var seo feedSEO
	_ = json.Unmarshal(in.SEO, &seo)
	return Skill{
		ID:          id,
		Name:        str(in.Name),
		ShortDesc:   str(in.ShortDesc),
		LongDesc:    str(in.LongDesc),
		Author:      str(in.Author),
		AuthorURL:   str(in.AuthorURL),
		Stars:       num(in.Stars),
		LastUpdated: date(in.LastUpdated, now),
		Command:     str(in.Command),
		Tags:        tags(in.Tags),
		FileSHA:     str(in.FileSHA),
		DownloadURL: str(in.DownloadURL),
		SEOTitle:    str(seo.Title),
		SEODesc:     str(seo.Description),
		SourceRepo:  str(in.SourceRepo),
		SourcePath:  str(in.SourcePath),
	}, true
}

// str coerces falsy values to the empty string.
func str(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 || math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

func num(v any) int {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = p
	case bool:
		if v {
			return 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func date(v any, now time.Time) time.Time {
	switch v := v.(type) {
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t.UTC()
			}
		}
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return now.UTC()
}

func tags(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, t := range list {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
