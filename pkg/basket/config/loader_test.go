package config

import (
	"strings"
	"testing"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Tokenizer == nil {
		t.Error("Should have tokenizer (empty)")
	}
	if comp.Pipeline == nil {
		t.Fatal("Should have pipeline")
	}

	got := comp.Pipeline.Process("<p>Latte art</p>")
	if strings.Join(got, ",") != "art,latte" {
		t.Errorf("expected [art latte], got %v", got)
	}
}

func TestLoaderNonExistentStoplist(t *testing.T) {
	loader := Loader{StoplistPath: "/nonexistent/stoplist.yaml"}

	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent stoplist")
	}
}

func TestLoaderNonExistentDict(t *testing.T) {
	loader := Loader{DictPath: "/nonexistent/dict.txt"}

	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent dictionary")
	}
}

func TestLoaderFromIngestConfig(t *testing.T) {
	stoplist := writeFile(t, "stoplist.yaml", "terms:\n  - video\n  - really\n")
	dict := writeFile(t, "dict.txt", "# drinks\ncoffee|coffees|kopi\n\nbroken-line\n")

	loader := NewLoader(IngestConfig{
		StoplistPath: stoplist,
		DictPath:     dict,
		Stopwords:    []string{"great"},
		MinTokenLen:  3,
		StripHTML:    true,
	})
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got := comp.Pipeline.Process("Great video, really good Kopi and coffees <b>on</b> me")
	want := "and,coffee,good"
	if strings.Join(got, ",") != want {
		t.Errorf("expected %s, got %v", want, got)
	}
}

func TestLoadDict(t *testing.T) {
	path := writeFile(t, "dict.txt", "tea | chai | cha \n|orphan\nmilk|\n")

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(dict.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", dict.Entries)
	}
	syn := dict.Synonyms()
	if syn["chai"] != "tea" || syn["cha"] != "tea" {
		t.Errorf("unexpected synonyms %v", syn)
	}
}

func TestLoadStoplist(t *testing.T) {
	path := writeFile(t, "stop.yaml", "terms: [a, the]\n")

	sl, err := LoadStoplist(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sl.Terms) != 2 || sl.Terms[1] != "the" {
		t.Errorf("unexpected terms %v", sl.Terms)
	}
}
