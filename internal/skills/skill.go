// Package skills holds the skill catalog: the records, the search index
// browsed by users and the store the catalog is persisted in.
package skills

import (
	"encoding/json"
	"errors"
	"time"
)

// Skill is a full catalog record.
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ShortDesc   string    `json:"shortDesc"`
	LongDesc    string    `json:"longDesc"`
	Author      string    `json:"author"`
	AuthorURL   string    `json:"authorUrl,omitempty"`
	Stars       int       `json:"stars"`
	LastUpdated time.Time `json:"lastUpdated"`
	Command     string    `json:"command"`
	Tags        []string  `json:"tags"`
	FileSHA     string    `json:"fileSha,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	SEOTitle    string    `json:"seoTitle,omitempty"`
	SEODesc     string    `json:"seoDesc,omitempty"`
	SourceRepo  string    `json:"sourceRepo,omitempty"`
	SourcePath  string    `json:"sourcePath,omitempty"`
}

// Summary returns the lightweight index record of the skill.
func (s Skill) Summary() Summary {
	return Summary{
		ID:         s.ID,
		Name:       s.Name,
		ShortDesc:  s.ShortDesc,
		Tags:       s.Tags,
		Author:     s.Author,
		Stars:      s.Stars,
		SourceRepo: s.SourceRepo,
	}
}

// Summary is what the directory lists and searches over.
type Summary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ShortDesc  string   `json:"shortDesc"`
	Tags       []string `json:"tags"`
	Author     string   `json:"author"`
	Stars      int      `json:"stars"`
	SourceRepo string   `json:"sourceRepo,omitempty"`
}

// PluginConfig is the entry enabling a skill in clawhub.json.
type PluginConfig struct {
	Enabled    bool `json:"enabled"`
	AutoUpdate bool `json:"auto_update"`
}

// ConfigFile is the clawhub.json file name.
const ConfigFile = "clawhub.json"

// Config returns the clawhub.json fragment enabling the skill.
func (s Skill) Config() map[string]map[string]PluginConfig {
	return map[string]map[string]PluginConfig{
		"plugins": {s.ID: {Enabled: true, AutoUpdate: true}},
	}
}

// ConfigSnippet is Config as indented JSON, ready to paste.
func (s Skill) ConfigSnippet() string {
	bts, _ := json.MarshalIndent(s.Config(), "", "  ") //nolint:errchkjson
	return string(bts)
}

// ErrNotFound is returned when a skill does not exist.
var ErrNotFound = errors.New("skill not found")
