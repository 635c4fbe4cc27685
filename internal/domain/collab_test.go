package domain

import "testing"

func TestPermissions_Union(t *testing.T) {
	t.Parallel()

	read := Permissions{Read: true}
	write := Permissions{Write: true}

	got := read.Union(write)
	if !got.Read || !got.Write || got.Admin {
		t.Errorf("Union: got %+v", got)
	}

	// Union with itself is idempotent.
	if read.Union(read) != read {
		t.Error("Union with self changed the set")
	}
}

func TestPermissions_None(t *testing.T) {
	t.Parallel()

	if !(Permissions{}).None() {
		t.Error("empty set: None() = false")
	}
	if (Permissions{Admin: true}).None() {
		t.Error("admin set: None() = true")
	}
}

func TestCollaborator_IsAccepted(t *testing.T) {
	t.Parallel()

	c := Collaborator{Status: InvitationPending}
	if c.IsAccepted() {
		t.Error("pending collaborator reported accepted")
	}
	c.Status = InvitationAccepted
	if !c.IsAccepted() {
		t.Error("accepted collaborator reported not accepted")
	}
}
