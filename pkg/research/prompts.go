package research

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Kushaagra05/First-Chatbot/pkg/research/prompts"
)

// WriterInput is the bundle rendered into the writer prompt.
type WriterInput struct {
	Topic    string
	Summary  string
	Critique string
}

// Prompts holds the parsed stage templates. It is immutable once loaded and
// safe for concurrent use.
type Prompts struct {
	researcher *template.Template
	summarizer *template.Template
	critic     *template.Template
	writer     *template.Template
}

// LoadPrompts loads and parses all stage templates from the embedded
// filesystem.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{}

	var err error
	if p.researcher, err = loadPrompt("RESEARCHER.md"); err != nil {
		return nil, fmt.Errorf("failed to load RESEARCHER: %w", err)
	}
	if p.summarizer, err = loadPrompt("SUMMARIZER.md"); err != nil {
		return nil, fmt.Errorf("failed to load SUMMARIZER: %w", err)
	}
	if p.critic, err = loadPrompt("CRITIC.md"); err != nil {
		return nil, fmt.Errorf("failed to load CRITIC: %w", err)
	}
	if p.writer, err = loadPrompt("WRITER.md"); err != nil {
		return nil, fmt.Errorf("failed to load WRITER: %w", err)
	}

	return p, nil
}

func loadPrompt(path string) (*template.Template, error) {
	data, err := prompts.PromptsFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tmpl, err := template.New(path).Option("missingkey=error").Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return tmpl, nil
}

// Researcher renders the researcher prompt for topic.
func (p *Prompts) Researcher(topic string) (string, error) {
	return render(p.researcher, struct{ Topic string }{topic})
}

// Summarizer renders the summarizer prompt for the research notes.
func (p *Prompts) Summarizer(research string) (string, error) {
	return render(p.summarizer, struct{ Research string }{research})
}

// Critic renders the critic prompt for a summary.
func (p *Prompts) Critic(summary string) (string, error) {
	return render(p.critic, struct{ Summary string }{summary})
}

// Writer renders the final report prompt.
func (p *Prompts) Writer(in WriterInput) (string, error) {
	return render(p.writer, in)
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
