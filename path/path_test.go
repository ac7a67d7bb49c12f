package path_test

import (
	"testing"

	"fluidinfo/models"
	"fluidinfo/path"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantErr models.Kind
		name    string
		depth   int
	}{
		{in: "alice/books/rating", name: "rating", depth: 3},
		{in: "alice", name: "alice", depth: 1},
		{in: "alice/Books", name: "Books", depth: 2},
		{in: "", wantErr: models.KindMalformedPath},
		{in: "Alice/books", wantErr: models.KindInvalidPath},
		{in: "alice//books", wantErr: models.KindMalformedPath},
		{in: "alice/bo ok", wantErr: models.KindMalformedPath},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := path.Parse(tt.in)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Parse(%q) = nil error, want %s", tt.in, tt.wantErr)
				}
				if kind, _ := models.KindOf(err); kind != tt.wantErr {
					t.Fatalf("Parse(%q) kind = %s, want %s", tt.in, kind, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if p.Name() != tt.name {
				t.Errorf("Parse(%q).Name() = %q, want %q", tt.in, p.Name(), tt.name)
			}
			if p.Depth() != tt.depth {
				t.Errorf("Parse(%q).Depth() = %d, want %d", tt.in, p.Depth(), tt.depth)
			}
		})
	}
}

func TestAncestors(t *testing.T) {
	p := path.MustParse("alice/books/rating")
	anc := p.Ancestors()
	if len(anc) != 2 {
		t.Fatalf("Ancestors() len = %d, want 2", len(anc))
	}
	if anc[0].String() != "alice" || anc[1].String() != "alice/books" {
		t.Errorf("Ancestors() = %v", anc)
	}
}

func TestParent(t *testing.T) {
	root := path.MustParse("alice")
	if _, ok := root.Parent(); ok {
		t.Errorf("root path should have no parent")
	}
	child := path.MustParse("alice/books")
	parent, ok := child.Parent()
	if !ok || parent.String() != "alice" {
		t.Errorf("Parent() = %v, %v, want alice, true", parent, ok)
	}
}

func TestValidateUsername(t *testing.T) {
	if err := path.ValidateUsername("alice"); err != nil {
		t.Errorf("ValidateUsername(alice) = %v, want nil", err)
	}
	if err := path.ValidateUsername("Alice"); err == nil {
		t.Errorf("ValidateUsername(Alice) = nil, want error")
	}
	if err := path.ValidateUsername(""); err == nil {
		t.Errorf("ValidateUsername(\"\") = nil, want error")
	}
}

func TestNormalizeAbout(t *testing.T) {
	if got := path.NormalizeAbout("Éric Serra"); got != "éric serra" {
		t.Errorf("NormalizeAbout case-fold = %q, want %q", got, "éric serra")
	}
	if got := path.NormalizeAbout("http://Example.com/Path"); got != "http://Example.com/Path" {
		t.Errorf("NormalizeAbout should preserve URL case, got %q", got)
	}
}

func TestCanonicalAbout(t *testing.T) {
	if got := path.AboutForNamespace(path.MustParse("alice/books")); got != "Object for the namespace alice/books" {
		t.Errorf("AboutForNamespace = %q", got)
	}
	if got := path.AboutForTag(path.MustParse("alice/books/rating")); got != "Object for the attribute alice/books/rating" {
		t.Errorf("AboutForTag = %q", got)
	}
	if got := path.AboutForUser("alice"); got != "@alice" {
		t.Errorf("AboutForUser = %q", got)
	}
}
