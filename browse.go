package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/spf13/cobra"
)

const searchDebounce = 300 * time.Millisecond

func newSkillsBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the skill catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isInputTTY() || !isOutputTTY() {
				return clawError{
					newUserErrorf("not a terminal"),
					fmt.Sprintf("Use %s when piping.", stderrStyles().InlineCode.Render("clawkit skills search")),
				}
			}
			idx, err := loadIndex(cmd.Context())
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(
				newBrowseModel(stdoutStyles(), skills.NewBrowser(idx, skills.DefaultPageSize)),
				tea.WithContext(cmd.Context()),
				tea.WithAltScreen(),
			).Run()
			if err != nil {
				return clawError{err, "Could not start the browser."}
			}
			m := final.(browseModel) //nolint:forcetypeassert
			if m.selected == nil {
				return nil
			}
			sk, err := getSkill(cmd.Context(), m.selected.ID)
			if err != nil {
				return err
			}
			return renderSkill(os.Stdout, stdoutStyles(), sk, true)
		},
	}
}

// searchMsg fires once typing has paused. Only the one carrying the latest
// sequence number runs a search.
type searchMsg struct {
	seq   uint64
	query string
}

type browseModel struct {
	styles   styles
	input    textinput.Model
	browser  *skills.Browser
	cursor   int
	seq      uint64
	height   int
	selected *skills.Summary
}

func newBrowseModel(s styles, b *skills.Browser) browseModel {
	in := textinput.New()
	in.Placeholder = "Search skills"
	in.Prompt = "› "
	in.PromptStyle = s.Flag
	in.CharLimit = 100
	in.Focus()
	return browseModel{
		styles:  s,
		input:   in,
		browser: b,
		height:  20, //nolint:mnd
	}
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 3) //nolint:mnd
		return m, nil
	case searchMsg:
		if msg.seq == m.seq {
			m.browser.SetQuery(msg.query)
			m.cursor = 0
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if visible := m.browser.Visible(); len(visible) > 0 {
				sel := visible[m.cursor]
				m.selected = &sel
			}
			return m, tea.Quit
		case "up", "ctrl+p":
			m.cursor = max(m.cursor-1, 0)
			return m, nil
		case "down", "ctrl+n":
			if m.cursor == len(m.browser.Visible())-1 {
				m.browser.LoadMore()
			}
			m.cursor = min(m.cursor+1, max(len(m.browser.Visible())-1, 0))
			return m, nil
		case "tab":
			m.browser.LoadMore()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != before {
		m.seq++
		seq := m.seq
		return m, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
			return searchMsg{seq: seq, query: q}
		}))
	}
	return m, cmd
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.styles.Comment.Render(fmt.Sprintf("%d skills", m.browser.Total())) + "\n\n")

	visible := m.browser.Visible()
	start := max(0, m.cursor-m.height+1)
	end := min(len(visible), start+m.height)
	for i := start; i < end; i++ {
		sk := visible[i]
		line := fmt.Sprintf("%s %s", sk.Name, m.styles.Timeago.Render(fmt.Sprintf("★ %d", sk.Stars)))
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("› ") + m.styles.Selected.Render(sk.Name) + " " + m.styles.Comment.Render(sk.ShortDesc) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	if m.browser.HasMore() {
		b.WriteString("\n" + m.styles.Comment.Render(fmt.Sprintf(
			"tab: load %d more (%d remaining)", m.browser.NextBatch(), m.browser.Remaining(),
		)))
	}
	return b.String()
}
