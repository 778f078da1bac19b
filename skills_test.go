package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/stretchr/testify/require"
)

func useTestCatalog(t *testing.T) {
	t.Helper()
	old := config.Database
	config.Database = filepath.Join(t.TempDir(), "skills.db")
	t.Cleanup(func() { config.Database = old })
}

func TestSyncSkills(t *testing.T) {
	useTestCatalog(t)
	data, err := os.ReadFile(filepath.Join("internal", "skills", "testdata", "feed.json"))
	require.NoError(t, err)

	require.NoError(t, syncSkills(t.Context(), log.New(io.Discard), data, true))

	idx, err := loadIndex(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	sk, err := getSkill(t.Context(), "github-pr")
	require.NoError(t, err)
	require.Equal(t, "GitHub PR Reviewer", sk.Name)

	_, err = getSkill(t.Context(), "nope")
	require.ErrorIs(t, err, skills.ErrNotFound)

	require.Error(t, syncSkills(t.Context(), log.New(io.Discard), []byte(`{}`), false))
}

func TestLoadIndexEmpty(t *testing.T) {
	useTestCatalog(t)
	_, err := loadIndex(t.Context())
	var cerr clawError
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, cerr.Reason(), "clawkit skills sync")
}

func TestPushSkillsWithoutKey(t *testing.T) {
	old := config.SyncAPIKey
	config.SyncAPIKey = ""
	t.Cleanup(func() { config.SyncAPIKey = old })
	require.Error(t, pushSkills(t.Context(), log.New(io.Discard), "http://localhost:1", []byte(`[]`)))
}

func TestRenderPage(t *testing.T) {
	idx := skills.NewIndex([]skills.Summary{
		{ID: "a", Name: "Alpha", ShortDesc: "First", Stars: 3},
		{ID: "b", Name: "Beta", Stars: 2},
		{ID: "c", Name: "Gamma", Stars: 1},
	})

	var buf bytes.Buffer
	s := makeStyles(lipgloss.NewRenderer(&buf))
	renderPage(&buf, s, idx.Page("", 2, 2))
	require.Equal(t, "Gamma ★ 1 c\n\n3-3 of 3\n", buf.String())

	buf.Reset()
	renderPage(&buf, s, idx.Page("", 1, 2))
	require.Equal(t, "Alpha ★ 3 a\n  First\nBeta ★ 2 b\n\n1-2 of 3\n", buf.String())

	buf.Reset()
	renderPage(&buf, s, idx.Page("zzzzzz", 1, 2))
	require.Equal(t, "No skills found.\n", buf.String())
}

func TestRenderSkill(t *testing.T) {
	var buf bytes.Buffer
	s := makeStyles(lipgloss.NewRenderer(&buf))
	require.NoError(t, renderSkill(&buf, s, skills.Skill{
		ID:          "pdf",
		Name:        "PDF Tools",
		ShortDesc:   "Read PDFs",
		LongDesc:    "# PDF Tools\n\nReads PDFs.",
		Author:      "octo",
		AuthorURL:   "https://github.com/octo",
		Stars:       42,
		LastUpdated: time.Now().Add(-48 * time.Hour),
		Command:     "clawhub install pdf",
		Tags:        []string{"documents", "pdf"},
	}, false))

	out := buf.String()
	require.Contains(t, out, "PDF Tools ★ 42")
	require.Contains(t, out, "by octo https://github.com/octo, updated 2 days ago")
	require.Contains(t, out, "#documents #pdf")
	require.Contains(t, out, "# PDF Tools\n\nReads PDFs.")
	require.Contains(t, out, "Install:")
	require.Contains(t, out, "clawhub install pdf")
	require.Contains(t, out, "clawhub.json")
	require.Contains(t, out, `
  {
    "plugins": {
      "pdf": {
        "enabled": true,
        "auto_update": true
      }
    }
  }
`)
	require.Less(t, strings.Index(out, "Install:"), strings.Index(out, `"plugins"`))
}

func TestSkillJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, skillJSON{skills.Skill{ID: "pdf", Name: "PDF Tools"}, skills.Skill{ID: "pdf"}.Config()}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "pdf", got["id"])
	require.Equal(t, map[string]any{
		"plugins": map[string]any{
			"pdf": map[string]any{"enabled": true, "auto_update": true},
		},
	}, got["config"])
}

func TestInstallArgs(t *testing.T) {
	argv, err := installArgs(skills.Skill{ID: "a", Command: `clawhub install "my skill" --force`})
	require.NoError(t, err)
	require.Equal(t, []string{"clawhub", "install", "my skill", "--force"}, argv)

	_, err = installArgs(skills.Skill{ID: "a"})
	require.Error(t, err)

	_, err = installArgs(skills.Skill{ID: "a", Command: `clawhub install "unterminated`})
	require.Error(t, err)
}
