package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleSearchKey processes keyboard input for the search view.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchInput.Focused() {
		switch msg.String() {
		case "esc":
			m.searchInput.Blur()
			m.currentView = ViewFeed
			return m, nil

		case "enter":
			name := strings.TrimSpace(m.searchInput.Value())
			m.searchInput.Blur()
			if name == "" {
				return m, nil
			}
			return m, searchCmd(m.ctx, m.client, name)
		}

		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	// Results are numbered; a digit opens that user's profile.
	if idx := digitIndex(msg.String()); idx >= 0 && idx < len(m.searchResults) {
		m.profileForm = newProfileForm(m.store.User(), m.searchResults[idx])
		m.currentView = ViewProfile
		return m, nil
	}

	if msg.String() == "/" {
		m.searchInput.Focus()
	}
	return m, nil
}

// renderSearch renders the people search view.
func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Render("Search: ") + m.searchInput.View())
	b.WriteString("\n\n")

	if len(m.searchResults) == 0 {
		if !m.searchInput.Focused() {
			b.WriteString(styles.MutedText.Render("No matches. Press / to search again."))
		}
		return b.String()
	}

	for i, user := range m.searchResults {
		label := roleLabel(user)
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			styles.FaintText.Render(fmt.Sprintf("%d.", i+1)),
			styles.Text.Render(user.FullName()),
			styles.RoleBadge(label).Render(label),
			styles.MutedText.Render(truncate(user.Bio, 40))))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("press a number to open a profile"))
	return b.String()
}

// digitIndex maps "1".."9" to a zero-based index, -1 otherwise.
func digitIndex(key string) int {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return -1
	}
	return int(key[0] - '1')
}
