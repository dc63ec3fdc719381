package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tab identifies one of the six fixed content sub-sections of a version.
type Tab string

const (
	TabQuickReset   Tab = "quickreset"
	TabPepTalk      Tab = "peptalk"
	TabAffirmation  Tab = "affirmation"
	TabMiniExercise Tab = "miniexercise"
	TabReflections  Tab = "reflections"
	TabVoiceJourney Tab = "voicejourney"
)

// TabSpec declares what a tab's editor form carries. Behavior differences
// between tabs hang off these flags instead of per-tab conditionals.
type TabSpec struct {
	Tab Tab
	// MultiText splits body text into numbered text1..textN fields.
	MultiText bool
	// AllowsVoice permits an attached audio asset.
	AllowsVoice bool
	// HeadingOptional suppresses the heading requirement.
	HeadingOptional bool
}

// AllTabs lists every tab in editor order.
var AllTabs = []TabSpec{
	{Tab: TabQuickReset, AllowsVoice: true},
	{Tab: TabPepTalk, AllowsVoice: true},
	{Tab: TabAffirmation, MultiText: true, AllowsVoice: true},
	{Tab: TabMiniExercise, AllowsVoice: true},
	{Tab: TabReflections, AllowsVoice: true},
	{Tab: TabVoiceJourney, AllowsVoice: true, HeadingOptional: true},
}

// TabByName resolves a tab identifier.
func TabByName(name string) (TabSpec, bool) {
	for _, spec := range AllTabs {
		if string(spec.Tab) == name {
			return spec, true
		}
	}
	return TabSpec{}, false
}

// ContentVersion is a named, timestamped content bundle for one mood.
// Version names are unique within a mood. More than one version of a mood
// may carry live=true; writes never clear siblings.
type ContentVersion struct {
	Mood      Mood
	Name      string
	Live      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category is one tab's content within a version. Its identifier equals the
// tab name. For multi-text tabs the numbered fields live in Texts keyed
// text1..textN; all other tabs use Body.
type Category struct {
	Mood        Mood
	VersionName string
	Tab         Tab
	Heading     string
	Body        string
	Texts       map[string]string
	VoiceURL    string
	VoiceName   string
	Live        bool
	UpdatedAt   time.Time
}

var versionNamePattern = regexp.MustCompile(`^V(\d+)$`)

// VersionNumber extracts the integer from a V<n> version name.
func VersionNumber(name string) (int, bool) {
	m := versionNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextVersionName proposes V<max existing number + 1>, or V1 when no
// existing name parses.
func NextVersionName(existing []string) string {
	max := 0
	for _, name := range existing {
		if n, ok := VersionNumber(name); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("V%d", max+1)
}

// BuildTextFields produces a category's text payload from form entries.
// Multi-text tabs number each non-empty entry by its index position, so a
// blank second entry yields text1 and text3 rather than a renumbered text2.
func BuildTextFields(spec TabSpec, body string, entries []string) (string, map[string]string) {
	if !spec.MultiText {
		return body, nil
	}
	texts := make(map[string]string)
	for i, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		texts[fmt.Sprintf("text%d", i+1)] = entry
	}
	return "", texts
}
