// Package profile implements the profile editing rules: who may edit which
// fields, the bio length clamp, and applying a patch through the API.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cohortlab/cohort/internal/api"
)

// BioLimit is the maximum bio length in runes. Input beyond the limit is
// discarded rather than rejected.
const BioLimit = 300

// ClampBio truncates s to BioLimit runes.
func ClampBio(s string) string {
	runes := []rune(s)
	if len(runes) <= BioLimit {
		return s
	}
	return string(runes[:BioLimit])
}

// BioCounter renders the visible character counter for a bio value, e.g.
// "300/300" for a full bio.
func BioCounter(s string) string {
	return fmt.Sprintf("%d/%d", len([]rune(ClampBio(s))), BioLimit)
}

// Permissions describes what the viewer may do on the owner's profile page.
type Permissions struct {
	// CanEdit covers the basic and contact fields (names, username, email,
	// mobile, bio, github, photo).
	CanEdit bool
	// ShowPassword is true only on the viewer's own profile; other users'
	// pages never render a password field.
	ShowPassword bool
	// CanEditTrainingInfo covers the role-specific section (a student's
	// specialism and cohort details), editable by staff.
	CanEditTrainingInfo bool
}

// PermissionsFor resolves the edit rules for viewer looking at owner's
// profile. Users edit their own profiles; staff additionally edit anyone's.
// Students viewing someone else's profile get a fully read-only page.
func PermissionsFor(viewer, owner api.User) Permissions {
	own := viewer.ID == owner.ID
	staff := viewer.IsTeacher()
	return Permissions{
		CanEdit:             own || staff,
		ShowPassword:        own,
		CanEditTrainingInfo: staff,
	}
}

// patcher is the slice of the API client Save depends on.
type patcher interface {
	UpdateUserRaw(ctx context.Context, id int, req api.UpdateUserRequest) (*http.Response, error)
}

// Save applies a profile patch and returns the server's updated user record.
// It uses the raw-response path so the HTTP status line itself decides
// success, then decodes the envelope body.
func Save(ctx context.Context, client patcher, ownerID int, req api.UpdateUserRequest) (*api.User, error) {
	resp, err := client.UpdateUserRaw(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &api.Error{StatusCode: resp.StatusCode, Message: "profile update rejected"}
	}

	var env struct {
		Status string `json:"status"`
		Data   struct {
			User api.User `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	return &env.Data.User, nil
}
