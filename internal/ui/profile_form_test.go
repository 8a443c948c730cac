package ui

import (
	"testing"

	"github.com/cohortlab/cohort/internal/api"
)

var (
	formStudent = api.User{ID: 10, FirstName: "Sam", LastName: "Student", Role: api.RoleStudent, Specialism: "Frontend"}
	formTeacher = api.User{ID: 20, FirstName: "Tessa", LastName: "Teacher", Role: api.RoleTeacher}
)

func fieldByLabel(t *testing.T, f profileForm, label string) profileField {
	t.Helper()
	for _, field := range f.fields {
		if field.label == label {
			return field
		}
	}
	t.Fatalf("form has no field %q", label)
	return profileField{}
}

func hasField(f profileForm, label string) bool {
	for _, field := range f.fields {
		if field.label == label {
			return true
		}
	}
	return false
}

func TestNewProfileForm_OwnStudentProfile(t *testing.T) {
	f := newProfileForm(formStudent, formStudent)

	if !f.perms.CanEdit {
		t.Fatal("own profile should be editable")
	}
	if !hasField(f, "Password") {
		t.Fatal("own profile should show the password field")
	}
	if spec := fieldByLabel(t, f, "Specialism"); !spec.locked {
		t.Fatal("students should not edit their own specialism")
	}
	if first := fieldByLabel(t, f, "First name"); first.locked {
		t.Fatal("first name should be editable on own profile")
	}
}

func TestNewProfileForm_TeacherViewsStudent(t *testing.T) {
	f := newProfileForm(formTeacher, formStudent)

	if !f.perms.CanEdit {
		t.Fatal("teachers should be able to edit student profiles")
	}
	if hasField(f, "Password") {
		t.Fatal("password field belongs to the owner only")
	}
	if spec := fieldByLabel(t, f, "Specialism"); spec.locked {
		t.Fatal("teachers should edit student training info")
	}
}

func TestNewProfileForm_StudentViewsTeacherReadOnly(t *testing.T) {
	f := newProfileForm(formStudent, formTeacher)

	if f.perms.CanEdit {
		t.Fatal("students should not edit teacher profiles")
	}
	if hasField(f, "Password") {
		t.Fatal("password field should not appear on another user's profile")
	}
}

func TestProfileForm_RequestContainsOnlyChanges(t *testing.T) {
	f := newProfileForm(formStudent, formStudent)

	for i := range f.fields {
		if f.fields[i].label == "First name" {
			f.fields[i].input.SetValue("Samantha")
		}
	}

	req := f.request()
	if req.FirstName == nil || *req.FirstName != "Samantha" {
		t.Fatalf("FirstName = %v, want Samantha", req.FirstName)
	}
	if req.LastName != nil || req.Email != nil || req.Bio != nil || req.Password != nil {
		t.Fatalf("unchanged fields leaked into patch: %+v", req)
	}
}

func TestProfileForm_EmptyPasswordMeansUnchanged(t *testing.T) {
	f := newProfileForm(formStudent, formStudent)

	req := f.request()
	if req != (api.UpdateUserRequest{}) {
		t.Fatalf("untouched form produced a patch: %+v", req)
	}

	for i := range f.fields {
		if f.fields[i].label == "Password" {
			f.fields[i].input.SetValue("hunter2")
		}
	}
	req = f.request()
	if req.Password == nil || *req.Password != "hunter2" {
		t.Fatalf("Password = %v, want hunter2", req.Password)
	}
}

func TestProfileForm_NextEditableSkipsLockedRows(t *testing.T) {
	f := newProfileForm(formStudent, formStudent)

	for i, field := range f.fields {
		if field.label == "Photo URL" {
			f.focusField(i)
		}
	}
	// Specialism follows Photo URL but is locked for students.
	f.nextEditable(1)
	if got := f.fields[f.focusIdx].label; got != "Password" {
		t.Fatalf("focus landed on %q, want Password", got)
	}
}
