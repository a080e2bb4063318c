// Package intent inspects a workspace directory and guesses what the
// user is about to do, so the orchestrator can recommend a component
// set beyond the bare essentials. Grounded in the original Python
// app/core/startup_detection.py this replaces.
package intent

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// codeExtensions mirrors startup_detection.py's CODE_EXTENSIONS.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true,
	".rs": true, ".java": true, ".cpp": true, ".c": true,
}

// researchKeywords mirrors the filename substrings checked by
// _check_web_research.
var researchKeywords = []string{"research", "search", "web", "scrape", "crawl"}

// projectFiles mirrors the manifest names checked by
// _check_existing_project.
var projectFiles = []string{"package.json", "pyproject.toml", "Cargo.toml", "go.mod"}

// Intent is the detector's verdict (spec.md §4.3 UserIntent).
type Intent struct {
	Type        string
	Confidence  float64
	Required    []string
	Optional    []string
	Description string
}

// essentialComponents is the fixed always-load list, matching
// startup_detection.py's get_essential_components.
var essentialComponents = []string{
	"config", "logger", "database", "guardian",
	"code_editor", "command_log", "agent_control", "agent_monitor",
}

// Detector probes a workspace directory for intent signals.
type Detector struct {
	Directory string
}

// New creates a Detector rooted at dir.
func New(dir string) *Detector {
	return &Detector{Directory: dir}
}

// Essential returns the fixed set of components loaded regardless of
// detected intent.
func (d *Detector) Essential() []string {
	return append([]string(nil), essentialComponents...)
}

// Detect runs every probe and returns the highest-confidence intent,
// falling back to a General intent (confidence 0.5) if none fire.
// Matches startup_detection.py's detect_intent ordering and defaults.
func (d *Detector) Detect() Intent {
	candidates := []Intent{
		d.checkExistingProject(),
		d.checkCodeEditing(),
		d.checkWebResearch(),
		d.checkCollaboration(),
	}

	best := Intent{
		Type:        "general",
		Confidence:  0.5,
		Required:    append([]string(nil), essentialComponents...),
		Description: "No specific intent detected; loading essential components only",
	}

	for _, c := range candidates {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// Recommended returns Required+Optional, deduplicated, matching
// startup_detection.py's get_recommended_components.
func (i Intent) Recommended() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(append([]string(nil), i.Required...), i.Optional...) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (d *Detector) checkExistingProject() Intent {
	hasGit := dirExists(filepath.Join(d.Directory, ".git"))
	hasManifest := false
	for _, f := range projectFiles {
		if fileExists(filepath.Join(d.Directory, f)) {
			hasManifest = true
			break
		}
	}
	hasRecent := d.hasRecentFiles(24 * time.Hour)

	if !hasGit && !hasManifest && !hasRecent {
		return Intent{}
	}

	confidence := 0.6
	if hasGit {
		confidence = 0.8
	}

	return Intent{
		Type:       "existing_project",
		Confidence: confidence,
		Required: []string{
			"config", "logger", "database", "code_editor",
			"command_log", "agent_control", "agent_monitor", "guardian",
		},
		Optional:    []string{"versioning", "backup", "knowledge_graph"},
		Description: "Existing project detected",
	}
}

func (d *Detector) checkCodeEditing() Intent {
	entries, err := os.ReadDir(d.Directory)
	if err != nil {
		return Intent{}
	}
	sampled := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if codeExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			return Intent{
				Type:        "code_editing",
				Confidence:  0.7,
				Optional:    []string{"sandbox", "agent_monitor"},
				Description: "Code files detected in workspace",
			}
		}
		sampled++
		if sampled >= 5 {
			break
		}
	}
	return Intent{}
}

func (d *Detector) checkWebResearch() Intent {
	entries, err := os.ReadDir(d.Directory)
	if err != nil {
		return Intent{}
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		for _, kw := range researchKeywords {
			if strings.Contains(name, kw) {
				return Intent{
					Type:        "web_research",
					Confidence:  0.6,
					Optional:    []string{"web_search", "browser", "knowledge_graph"},
					Description: "Research-related file names detected",
				}
			}
		}
	}
	return Intent{}
}

func (d *Detector) checkCollaboration() Intent {
	if !d.hasGitRemote() {
		return Intent{}
	}
	return Intent{
		Type:        "collaboration",
		Confidence:  0.7,
		Required:    []string{"versioning"},
		Optional:    []string{"backup", "resource_catalog"},
		Description: "Git remote configured; collaborative workflow likely",
	}
}

func (d *Detector) hasRecentFiles(within time.Duration) bool {
	cutoff := time.Now().Add(-within)
	found := false
	_ = filepath.WalkDir(d.Directory, func(path string, de os.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			found = true
		}
		return nil
	})
	return found
}

func (d *Detector) hasGitRemote() bool {
	f, err := os.Open(filepath.Join(d.Directory, ".git", "config"))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "remote") {
			return true
		}
	}
	return false
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
