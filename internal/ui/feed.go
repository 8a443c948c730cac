package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cohortlab/cohort/internal/api"
)

// handleFeedKey processes keyboard input for the feed view.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	posts := m.snapshot.Posts

	switch msg.String() {
	case "j", "down":
		if m.selectedPost < len(posts)-1 {
			m.selectedPost++
		}
		m.updateFeedViewport()
		return m, nil

	case "k", "up":
		if m.selectedPost > 0 {
			m.selectedPost--
		}
		m.updateFeedViewport()
		return m, nil

	case "g", "home":
		m.selectedPost = 0
		m.updateFeedViewport()
		return m, nil

	case "G", "end":
		if len(posts) > 0 {
			m.selectedPost = len(posts) - 1
		}
		m.updateFeedViewport()
		return m, nil

	case "n":
		m.composing = true
		m.editingPost = 0
		m.composer.SetValue("")
		m.composer.Focus()
		return m, nil

	case "e":
		post, ok := m.currentPost()
		if !ok || post.UserID != m.store.User().ID {
			return m, nil
		}
		m.composing = true
		m.editingPost = post.ID
		m.composer.SetValue(post.Content)
		m.composer.Focus()
		return m, nil

	case "d":
		post, ok := m.currentPost()
		if !ok || post.UserID != m.store.User().ID {
			return m, nil
		}
		id := post.ID
		return m, mutationCmd(m.store, func() error {
			return m.store.DeletePost(m.ctx, id)
		})

	case "c":
		if _, ok := m.currentPost(); !ok {
			return m, nil
		}
		m.commenting = true
		m.commentInput.SetValue("")
		m.commentInput.Focus()
		return m, nil
	}

	return m, nil
}

// handleComposerKey processes input while the post composer or comment
// input is active.
func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composing = false
		m.commenting = false
		m.composer.Blur()
		m.commentInput.Blur()
		return m, nil

	case "enter":
		if m.commenting {
			content := strings.TrimSpace(m.commentInput.Value())
			m.commenting = false
			m.commentInput.Blur()
			post, ok := m.currentPost()
			if content == "" || !ok {
				return m, nil
			}
			postID := post.ID
			return m, mutationCmd(m.store, func() error {
				_, err := m.store.AddComment(m.ctx, postID, content)
				return err
			})
		}

		content := strings.TrimSpace(m.composer.Value())
		editing := m.editingPost
		m.composing = false
		m.composer.Blur()
		if content == "" {
			return m, nil
		}
		if editing != 0 {
			return m, mutationCmd(m.store, func() error {
				return m.store.UpdatePost(m.ctx, editing, content)
			})
		}
		return m, mutationCmd(m.store, func() error {
			_, err := m.store.CreatePost(m.ctx, content)
			return err
		})
	}

	var cmd tea.Cmd
	if m.commenting {
		m.commentInput, cmd = m.commentInput.Update(msg)
	} else {
		m.composer, cmd = m.composer.Update(msg)
	}
	return m, cmd
}

func (m Model) currentPost() (api.Post, bool) {
	if m.selectedPost < 0 || m.selectedPost >= len(m.snapshot.Posts) {
		return api.Post{}, false
	}
	return m.snapshot.Posts[m.selectedPost], true
}

func (m *Model) updateFeedViewport() {
	if !m.ready {
		return
	}
	m.feedViewport.SetContent(m.renderPosts())
}

// renderFeed renders the post feed with the composer line when active.
func (m Model) renderFeed() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.composing {
		label := "New post"
		if m.editingPost != 0 {
			label = "Edit post"
		}
		b.WriteString(styles.AccentText.Render(label+": ") + m.composer.View())
		b.WriteString("\n\n")
	}
	if m.commenting {
		b.WriteString(styles.AccentText.Render("Comment: ") + m.commentInput.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.feedViewport.View())
	return b.String()
}

func (m Model) renderPosts() string {
	styles := m.theme.Styles()

	if m.snapshot.LoadingPosts {
		return styles.MutedText.Render("Loading posts...")
	}
	if len(m.snapshot.Posts) == 0 {
		return styles.MutedText.Render("No posts yet. Press n to write the first one.")
	}

	var b strings.Builder
	for i, post := range m.snapshot.Posts {
		b.WriteString(m.renderPost(post, i == m.selectedPost))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPost(post api.Post, selected bool) string {
	styles := m.theme.Styles()
	var b strings.Builder

	author := "unknown"
	badge := ""
	if post.Author != nil {
		author = post.Author.FullName()
		label := roleLabel(*post.Author)
		badge = " " + styles.RoleBadge(label).Render(label)
	}

	header := styles.AccentText.Render(author) + badge +
		styles.FaintText.Render("  "+relativeTime(post.CreatedAt, m.lastUpdated))
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(post.Content))
	b.WriteString("\n")

	for _, comment := range post.Comments {
		who := "unknown"
		if comment.Author != nil {
			who = comment.Author.FullName()
		}
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  ↳ %s: %s", who, comment.Content)))
		b.WriteString("\n")
	}

	body := strings.TrimRight(b.String(), "\n")
	panel := styles.Panel
	if selected {
		panel = styles.PanelFocus
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return panel.Width(width).Render(body)
}
