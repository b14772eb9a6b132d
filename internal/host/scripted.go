package host

import (
	"context"
	"sync"
)

// Answer is a queued prompt response.
type Answer struct {
	Value string
	OK    bool
}

// Choose returns an Answer accepting value.
func Choose(value string) Answer { return Answer{Value: value, OK: true} }

// Cancel returns an Answer that cancels the prompt.
func Cancel() Answer { return Answer{} }

// ScriptedPrompter answers prompts from a queue. When the queue is empty,
// Choose falls back to Default (cancel when empty) and Text cancels.
type ScriptedPrompter struct {
	Default string

	mu      sync.Mutex
	answers []Answer
	asked   []string
	// Hook runs before an answer is returned, outside any caller lock.
	Hook func(title string)
}

// NewScriptedPrompter creates a prompter that replays answers in order.
func NewScriptedPrompter(answers ...Answer) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Push appends answers to the queue.
func (p *ScriptedPrompter) Push(answers ...Answer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, answers...)
}

// Asked returns the titles of every prompt shown so far.
func (p *ScriptedPrompter) Asked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.asked...)
}

func (p *ScriptedPrompter) next(title string) (Answer, bool) {
	p.mu.Lock()
	p.asked = append(p.asked, title)
	hook := p.Hook
	var (
		a  Answer
		ok bool
	)
	if len(p.answers) > 0 {
		a, ok = p.answers[0], true
		p.answers = p.answers[1:]
	}
	p.mu.Unlock()

	if hook != nil {
		hook(title)
	}
	return a, ok
}

// Choose implements Prompter.
func (p *ScriptedPrompter) Choose(ctx context.Context, title string, choices []string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if a, ok := p.next(title); ok {
		return a.Value, a.OK, nil
	}
	if p.Default == "" {
		return "", false, nil
	}
	for _, c := range choices {
		if c == p.Default {
			return c, true, nil
		}
	}
	return "", false, nil
}

// Text implements Prompter.
func (p *ScriptedPrompter) Text(ctx context.Context, title string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if a, ok := p.next(title); ok {
		return a.Value, a.OK, nil
	}
	return "", false, nil
}
