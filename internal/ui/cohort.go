package ui

import (
	"fmt"
	"strings"

	"github.com/cohortlab/cohort/internal/api"
)

// renderCohort renders the cohort panel. Students see their own cohort
// with its roster; teachers see every cohort.
func (m Model) renderCohort() string {
	styles := m.theme.Styles()

	if m.snapshot.LoadingCohorts {
		return styles.MutedText.Render("Loading cohorts...")
	}

	if m.store.User().IsTeacher() {
		if len(m.snapshot.Cohorts) == 0 {
			return styles.MutedText.Render("No cohorts found.")
		}
		var b strings.Builder
		b.WriteString(styles.AccentText.Render("All cohorts"))
		b.WriteString("\n\n")
		for _, cohort := range m.snapshot.Cohorts {
			b.WriteString(m.renderCohortCard(cohort))
			b.WriteString("\n")
		}
		return b.String()
	}

	if m.snapshot.SelectedCohort == nil {
		return styles.MutedText.Render("You are not assigned to a cohort yet.")
	}
	return m.renderCohortCard(*m.snapshot.SelectedCohort)
}

func (m Model) renderCohortCard(cohort api.Cohort) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Render(cohort.Title))
	b.WriteString("\n")
	for _, course := range cohort.Courses {
		b.WriteString(styles.MutedText.Render("  " + course.Title))
		b.WriteString("\n")
		for _, teacher := range course.Teachers {
			b.WriteString(fmt.Sprintf("    %s %s\n",
				styles.RoleBadge("teacher").Render("T"), teacher.FullName()))
		}
		for _, student := range course.Students {
			b.WriteString(fmt.Sprintf("    %s %s\n",
				styles.RoleBadge("student").Render("S"), student.FullName()))
		}
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return styles.Panel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}
