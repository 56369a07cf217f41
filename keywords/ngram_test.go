package keywords

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World’s  BEST—tool!", "hello world's best tool"},
		{"  multi\n\tline  ", "multi line"},
		{"self-hosted (beta)", "self-hosted beta"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words("-- 'quoted' word- - ok")
	want := []string{"quoted", "word", "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestNGrams(t *testing.T) {
	words := []string{"backup", "of", "the", "cluster"}
	got := NGrams(words, 2, 3)
	// "backup of the" has one meaningful word out of three
	want := []string{"backup of", "the cluster"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams = %v, want %v", got, want)
	}

	got = NGrams([]string{"fast", "cloud", "backup"}, 2, 4)
	want = []string{"fast cloud", "cloud backup", "fast cloud backup"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams = %v, want %v", got, want)
	}
}

func TestAdmissible(t *testing.T) {
	tests := []struct {
		window []string
		want   bool
	}{
		{[]string{"of", "the"}, false},
		{[]string{"the", "cluster"}, true},
		{[]string{"of", "the", "cluster"}, false},
		{[]string{"backup", "of", "cluster"}, true},
		{[]string{"a", "b", "cloud", "backup"}, true},
		{[]string{"2024", "cloud"}, true},
		{[]string{"2024", "of"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := Admissible(tt.window); got != tt.want {
			t.Errorf("Admissible(%v) = %v, want %v", tt.window, got, tt.want)
		}
	}
}

func TestIsMeaningful(t *testing.T) {
	for word, want := range map[string]bool{
		"seo": true, "go": false, "the": false, "1999": false, "html5": true, "click": false,
	} {
		if got := IsMeaningful(word); got != want {
			t.Errorf("IsMeaningful(%q) = %v, want %v", word, got, want)
		}
	}
}
