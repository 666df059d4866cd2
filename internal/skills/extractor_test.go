package skills

import (
	"reflect"
	"testing"
)

func TestExtractWordMode(t *testing.T) {
	t.Parallel()

	extractor := New(nil)

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "empty text",
			input:  "",
			expect: []string{},
		},
		{
			name:   "vocabulary order, not text order",
			input:  "Django backend with Python and PostgreSQL",
			expect: []string{"python", "django", "postgresql"},
		},
		{
			name:   "each skill once",
			input:  "python python PYTHON",
			expect: []string{"python"},
		},
		{
			name:   "no go inside good",
			input:  "a good team player",
			expect: []string{},
		},
		{
			name:   "java is not javascript",
			input:  "JavaScript engineer",
			expect: []string{"javascript"},
		},
		{
			name:   "symbol skills",
			input:  "C++ and C# developer, Node.js, ASP.NET",
			expect: []string{"c++", "c#", "node.js", "asp.net"},
		},
		{
			name:   "dotted framework names are not javascript",
			input:  "Node.js backend, Vue.js frontend, Express.js",
			expect: []string{"vue", "node.js", "express"},
		},
		{
			name:   "bare js alias",
			input:  "Senior JS developer. Python.",
			expect: []string{"python", "javascript"},
		},
		{
			name:   "aliases resolve to canonical names",
			input:  "Golang services on k8s with postgres",
			expect: []string{"go", "postgresql", "kubernetes"},
		},
		{
			name:   "multi word skills tolerate hyphens",
			input:  "Machine-Learning and React Native",
			expect: []string{"react", "machine learning", "react native"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := extractor.Extract(tt.input)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestExtractSubstringModeKeepsLegacyBehaviour(t *testing.T) {
	extractor := New(&Config{Mode: ModeSubstring})

	got := extractor.Extract("a good team player")
	if !reflect.DeepEqual(got, []string{"go"}) {
		t.Fatalf("expected legacy false positive [go], got %v", got)
	}

	if extractor.Mode() != ModeSubstring {
		t.Fatalf("expected substring mode, got %s", extractor.Mode())
	}
}

func TestExtractN(t *testing.T) {
	extractor := New(nil)

	got := extractor.ExtractN("python java javascript typescript php ruby", 3)
	if !reflect.DeepEqual(got, []string{"python", "java", "javascript"}) {
		t.Fatalf("unexpected capped skills: %v", got)
	}
}

func TestCustomVocabulary(t *testing.T) {
	extractor := New(&Config{
		Vocabulary: Vocabulary{
			{Name: "infra", Skills: []string{"Ansible", "terraform", "ansible"}},
		},
		Aliases: map[string][]string{"terraform": {"tf"}},
	})

	if got := extractor.Skills(); !reflect.DeepEqual(got, []string{"ansible", "terraform"}) {
		t.Fatalf("unexpected vocabulary: %v", got)
	}

	got := extractor.Extract("TF modules and Ansible roles, no python")
	if !reflect.DeepEqual(got, []string{"ansible", "terraform"}) {
		t.Fatalf("unexpected skills: %v", got)
	}
}
