package entity

// PromptContext is a read-only snapshot of the session identity used to
// render the prompt. It is refreshed before every prompt.
type PromptContext struct {
	User string `json:"user"` // Login name
	Host string `json:"host"` // Host name as reported by the OS
	Dir  string `json:"dir"`  // Current working directory
	Home string `json:"home"` // Home directory of User, used to abbreviate Dir
	Root bool   `json:"root"` // True when the effective uid is 0
}
