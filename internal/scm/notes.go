package scm

import (
	"context"
	"strings"
)

// Git notes under custom refs serve as a side channel that never touches
// the working tree. Note refs live under refs/notes/<noteRef>.

// HasNoteRef reports whether the notes ref exists in the local repository.
func (g *Git) HasNoteRef(ctx context.Context, noteRef string) bool {
	return g.HasLocalReference(ctx, "refs/notes/"+noteRef)
}

// AddNote attaches a note to the object under the given notes ref. With
// force set an existing note for the object is replaced.
func (g *Git) AddNote(ctx context.Context, noteRef, note, objectRef string, force bool) error {
	args := []string{"notes", "--ref=" + noteRef, "add", "-m", note}
	if force {
		args = append(args, "-f")
	}
	args = append(args, objectRef)
	_, err := g.run(ctx, args...)
	return err
}

// ReadNote returns the note attached to the object under the given notes
// ref.
func (g *Git) ReadNote(ctx context.Context, noteRef, objectRef string) (string, error) {
	return g.run(ctx, "notes", "--ref="+noteRef, "show", objectRef)
}

// HasNote reports whether the object carries a note under the given notes
// ref.
func (g *Git) HasNote(ctx context.Context, noteRef, objectRef string) bool {
	if !g.HasNoteRef(ctx, noteRef) {
		return false
	}
	_, err := g.ReadNote(ctx, noteRef, objectRef)
	return err == nil
}

// ListNotes returns the annotated object ids under the given notes ref.
func (g *Git) ListNotes(ctx context.Context, noteRef string) ([]string, error) {
	out, err := g.run(ctx, "notes", "--ref="+noteRef, "list")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	// Each line is "<note blob id> <annotated object id>".
	var objects []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			objects = append(objects, fields[1])
		}
	}
	return objects, nil
}
