package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cohortlab/cohort/internal/api"
	"github.com/cohortlab/cohort/internal/profile"
)

// profileField is one editable row of the profile form.
type profileField struct {
	label  string
	input  textinput.Model
	locked bool
	isBio  bool
	apply  func(*api.UpdateUserRequest, string)
}

// profileForm holds the profile view state. Which rows are editable
// follows the viewer/owner permission rules.
type profileForm struct {
	viewer   api.User
	owner    api.User
	perms    profile.Permissions
	fields   []profileField
	focusIdx int
	editing  bool
}

func newProfileForm(viewer, owner api.User) profileForm {
	perms := profile.PermissionsFor(viewer, owner)

	newInput := func(value string) textinput.Model {
		in := textinput.New()
		in.SetValue(value)
		return in
	}

	bio := newInput(owner.Bio)
	bio.CharLimit = profile.BioLimit

	password := textinput.New()
	password.EchoMode = textinput.EchoPassword
	password.Placeholder = "unchanged"

	fields := []profileField{
		{label: "First name", input: newInput(owner.FirstName),
			apply: func(r *api.UpdateUserRequest, v string) { r.FirstName = &v }},
		{label: "Last name", input: newInput(owner.LastName),
			apply: func(r *api.UpdateUserRequest, v string) { r.LastName = &v }},
		{label: "Username", input: newInput(owner.Username),
			apply: func(r *api.UpdateUserRequest, v string) { r.Username = &v }},
		{label: "Email", input: newInput(owner.Email),
			apply: func(r *api.UpdateUserRequest, v string) { r.Email = &v }},
		{label: "Bio", input: bio, isBio: true,
			apply: func(r *api.UpdateUserRequest, v string) { r.Bio = &v }},
		{label: "GitHub", input: newInput(owner.GithubURL),
			apply: func(r *api.UpdateUserRequest, v string) { r.GithubURL = &v }},
		{label: "Mobile", input: newInput(owner.Mobile),
			apply: func(r *api.UpdateUserRequest, v string) { r.Mobile = &v }},
		{label: "Photo URL", input: newInput(owner.PhotoURL),
			apply: func(r *api.UpdateUserRequest, v string) { r.PhotoURL = &v }},
		{label: "Specialism", input: newInput(owner.Specialism),
			locked: !perms.CanEditTrainingInfo,
			apply:  func(r *api.UpdateUserRequest, v string) { r.Specialism = &v }},
	}

	if perms.ShowPassword {
		fields = append(fields, profileField{label: "Password", input: password,
			apply: func(r *api.UpdateUserRequest, v string) { r.Password = &v }})
	}

	return profileForm{
		viewer: viewer,
		owner:  owner,
		perms:  perms,
		fields: fields,
	}
}

// setOwner refreshes the form after a save so the baseline for "what
// changed" is the server's latest state.
func (f *profileForm) setOwner(owner api.User) {
	*f = newProfileForm(f.viewer, owner)
}

// request builds a patch containing only the fields that differ from
// the owner's current values.
func (f *profileForm) request() api.UpdateUserRequest {
	baseline := []string{
		f.owner.FirstName, f.owner.LastName, f.owner.Username, f.owner.Email,
		f.owner.Bio, f.owner.GithubURL, f.owner.Mobile, f.owner.PhotoURL,
		f.owner.Specialism,
	}

	var req api.UpdateUserRequest
	for i, field := range f.fields {
		value := strings.TrimSpace(field.input.Value())
		if i < len(baseline) {
			if value == baseline[i] {
				continue
			}
		} else if value == "" {
			// Password field: empty means unchanged.
			continue
		}
		field.apply(&req, value)
	}
	return req
}

func (f *profileForm) focusField(idx int) {
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	f.focusIdx = idx
	f.fields[idx].input.Focus()
}

// nextEditable advances focus, skipping locked rows.
func (f *profileForm) nextEditable(step int) {
	n := len(f.fields)
	idx := f.focusIdx
	for range f.fields {
		idx = (idx + step + n) % n
		if !f.fields[idx].locked {
			f.focusField(idx)
			return
		}
	}
}

// handleProfileKey processes keyboard input for the profile view.
func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.profileForm

	if !f.editing {
		switch msg.String() {
		case "enter", "i":
			if !f.perms.CanEdit {
				return m, nil
			}
			f.editing = true
			f.nextEditable(0)
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		f.editing = false
		f.fields[f.focusIdx].input.Blur()
		return m, nil

	case "tab", "down":
		f.nextEditable(1)
		return m, nil

	case "shift+tab", "up":
		f.nextEditable(-1)
		return m, nil

	case "enter":
		f.editing = false
		f.fields[f.focusIdx].input.Blur()
		req := f.request()
		if req == (api.UpdateUserRequest{}) {
			return m, nil
		}
		return m, saveProfileCmd(m.ctx, m.client, f.owner.ID, req)
	}

	var cmd tea.Cmd
	field := &f.fields[f.focusIdx]
	field.input, cmd = field.input.Update(msg)
	if field.isBio {
		field.input.SetValue(profile.ClampBio(field.input.Value()))
	}
	return m, cmd
}

// renderProfile renders the profile card or edit form.
func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	f := m.profileForm

	var b strings.Builder
	label := roleLabel(f.owner)
	b.WriteString(styles.AccentText.Render(f.owner.FullName()) + " " +
		styles.RoleBadge(label).Render(label))
	b.WriteString("\n\n")

	for _, field := range f.fields {
		name := styles.MutedText.Render(padLabel(field.label))
		switch {
		case field.locked:
			b.WriteString(name + styles.FaintText.Render(field.input.Value()+"  (read-only)"))
		case f.editing:
			b.WriteString(name + field.input.View())
		default:
			b.WriteString(name + styles.Text.Render(field.input.Value()))
		}
		if field.isBio {
			b.WriteString(styles.FaintText.Render("  " + profile.BioCounter(field.input.Value())))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case !f.perms.CanEdit:
		b.WriteString(styles.MutedText.Render("read-only profile"))
	case f.editing:
		b.WriteString(styles.MutedText.Render("tab next field · enter save · esc cancel"))
	default:
		b.WriteString(styles.MutedText.Render("enter to edit"))
	}
	return b.String()
}

func padLabel(label string) string {
	const width = 12
	if len(label) >= width {
		return label + " "
	}
	return label + strings.Repeat(" ", width-len(label))
}
