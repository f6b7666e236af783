package template

// Document is the parsed shape of a scenario template file, after
// variable/generator substitution and YAML decoding (spec.md 6,
// "scenario template format").
type Document struct {
	Name      string            `yaml:"name"`
	Version   string            `yaml:"version"`
	Variables map[string]any    `yaml:"variables"`
	Tasks     []TaskTemplate    `yaml:"tasks"`
}

// TaskTemplate is one task entry inside a template's tasks list, before
// count-multiplication and reference rewriting (spec.md 4.3).
type TaskTemplate struct {
	ID            string         `yaml:"id"`
	Service       string         `yaml:"service"`
	Name          string         `yaml:"name"`
	Count         any            `yaml:"count"`
	Prompt        string         `yaml:"prompt"`
	Params        map[string]any `yaml:"params"`
	TextTaskID    string         `yaml:"text_task_id"`
	SlidePromptID string         `yaml:"slide_prompt_id"`
	VoiceTrackID  string         `yaml:"voice_track_id"`
	SlideIDsRef   string         `yaml:"slide_ids_ref"`
}
