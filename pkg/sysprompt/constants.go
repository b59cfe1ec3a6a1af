package sysprompt

import "embed"

//go:embed templates/*
var TemplateFS embed.FS

const (
	ProductName = "sidekick"

	BashTool      = "bash"
	FileReadTool  = "file_read"
	FileWriteTool = "file_write"
	FileEditTool  = "file_edit"
	WebFetchTool  = "web_fetch"
	PlanTool      = "plan"
	ClarifyTool   = "clarify"
	SkillTool     = "skill"
	RestartTool   = "restart"
	Backtick      = "`"

	AgentMd  = "AGENT.md"
	ReadmeMd = "README.md"

	SystemTemplate = "templates/system.tmpl"
)
