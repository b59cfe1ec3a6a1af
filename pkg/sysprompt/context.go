package sysprompt

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/skills"
	"github.com/hmarward/sidekick/pkg/tools"
)

// PromptContext holds all variables for template rendering
type PromptContext struct {
	WorkingDirectory string
	IsGitRepo        bool
	Platform         string
	OSVersion        string
	Date             string

	// Content contexts (AGENT.md from the working directory and ~/.sidekick/)
	ContextFiles map[string]string

	ToolNames map[string]string

	// Discovered skills, sorted by name
	Skills []*skills.Skill

	Features map[string]bool

	BashBannedCommands  []string
	BashAllowedCommands []string
}

// NewPromptContext creates a new PromptContext with default values
func NewPromptContext() *PromptContext {
	pwd, _ := os.Getwd()

	return &PromptContext{
		WorkingDirectory:    pwd,
		IsGitRepo:           checkIsGitRepo(pwd),
		Platform:            runtime.GOOS,
		OSVersion:           getOSVersion(),
		Date:                time.Now().Format("2006-01-02"),
		ToolNames:           defaultToolNames(),
		ContextFiles:        loadContexts(pwd),
		Features:            map[string]bool{"skillsEnabled": true},
		BashBannedCommands:  tools.BannedCommands,
		BashAllowedCommands: []string{},
	}
}

func defaultToolNames() map[string]string {
	return map[string]string{
		"bash":        BashTool,
		"file_read":   FileReadTool,
		"file_write":  FileWriteTool,
		"file_edit":   FileEditTool,
		"web_fetch":   WebFetchTool,
		"plan":        PlanTool,
		"clarify":     ClarifyTool,
		"skill":       SkillTool,
		"restart":     RestartTool,
		"state_set":   "state_set",
		"state_get":   "state_get",
		"state_clear": "state_clear",
	}
}

// ToolName resolves a logical tool name for template rendering
func (ctx *PromptContext) ToolName(name string) string {
	if resolved, ok := ctx.ToolNames[name]; ok {
		return resolved
	}
	return name
}

// WithSkills attaches the discovered skill inventory to the context
func (ctx *PromptContext) WithSkills(discovered map[string]*skills.Skill) *PromptContext {
	names := make([]string, 0, len(discovered))
	for name := range discovered {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx.Skills = make([]*skills.Skill, 0, len(names))
	for _, name := range names {
		ctx.Skills = append(ctx.Skills, discovered[name])
	}
	return ctx
}

// contextFilePaths returns the candidate context file locations in priority order
func contextFilePaths(workingDir string) []string {
	paths := []string{filepath.Join(workingDir, AgentMd)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".sidekick", AgentMd))
	}
	return paths
}

// loadContexts loads AGENT.md context files from disk
func loadContexts(workingDir string) map[string]string {
	log := logger.G(context.Background())
	results := make(map[string]string)

	for _, path := range contextFilePaths(workingDir) {
		content, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("filename", path).Debug("failed to read context file")
			continue
		}
		results[path] = string(content)
	}
	return results
}

// checkIsGitRepo checks if the given directory is a git repository
func checkIsGitRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// getOSVersion returns the OS version string
func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		out, err := exec.Command("sw_vers", "-productVersion").Output()
		if err == nil {
			return "macOS " + strings.TrimSpace(string(out))
		}
	case "linux":
		out, err := exec.Command("uname", "-r").Output()
		if err == nil {
			return "Linux " + strings.TrimSpace(string(out))
		}
	case "windows":
		out, err := exec.Command("cmd", "/c", "ver").Output()
		if err == nil {
			return strings.TrimSpace(string(out))
		}
	}
	return runtime.GOOS
}
