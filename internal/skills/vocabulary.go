package skills

// Category groups related skills. Order matters: extraction scans categories
// and their skills in declaration order.
type Category struct {
	Name   string   `mapstructure:"category" json:"category"`
	Skills []string `mapstructure:"skills" json:"skills"`
}

// Vocabulary is an ordered list of skill categories.
type Vocabulary []Category

// DefaultVocabulary returns the built-in curated skill lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Name: "programming", Skills: []string{
			"python", "java", "javascript", "typescript", "c++", "c#", "php",
			"ruby", "go", "rust", "scala", "kotlin", "swift", "dart",
		}},
		{Name: "web_frontend", Skills: []string{
			"react", "angular", "vue", "html", "css", "sass", "less",
			"bootstrap", "tailwind", "jquery", "webpack", "babel",
		}},
		{Name: "web_backend", Skills: []string{
			"node.js", "express", "django", "flask", "spring", "laravel",
			"rails", "asp.net", "fastapi", "nestjs",
		}},
		{Name: "databases", Skills: []string{
			"mysql", "postgresql", "mongodb", "redis", "elasticsearch",
			"cassandra", "dynamodb", "sqlite", "oracle", "sql server",
		}},
		{Name: "cloud_devops", Skills: []string{
			"aws", "azure", "gcp", "docker", "kubernetes", "jenkins",
			"terraform", "ansible", "chef", "puppet", "gitlab ci", "github actions",
		}},
		{Name: "data_science", Skills: []string{
			"machine learning", "deep learning", "tensorflow", "pytorch",
			"pandas", "numpy", "scikit-learn", "keras", "opencv", "nltk",
		}},
		{Name: "mobile", Skills: []string{
			"react native", "flutter", "ios", "android", "xamarin",
			"ionic", "cordova", "swift", "objective-c",
		}},
	}
}

// DefaultAliases lists extra spellings that should resolve to a canonical skill.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"c++":          {"cpp"},
		"c#":           {"csharp"},
		"go":           {"golang"},
		"javascript":   {"js"},
		"node.js":      {"nodejs", "node js"},
		"postgresql":   {"postgres"},
		"kubernetes":   {"k8s"},
		"gcp":          {"google cloud"},
		"scikit-learn": {"sklearn"},
		"objective-c":  {"objective c"},
		"vue":          {"vue.js", "vuejs"},
	}
}

// Names returns all skills in scan order without duplicates.
func (v Vocabulary) Names() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, category := range v {
		for _, skill := range category.Skills {
			if _, ok := seen[skill]; ok {
				continue
			}
			seen[skill] = struct{}{}
			names = append(names, skill)
		}
	}
	return names
}
