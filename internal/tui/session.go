package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opskit/toolbox/internal/metadata"
	"github.com/opskit/toolbox/internal/provision"
)

// provisionSession bridges the blocking Provision flow onto the bubbletea
// update loop. Provision runs on its own goroutine against a channel-backed
// Selector; each prompt surfaces as a promptFileMsg, each answer resumes the
// goroutine, and the final result arrives exactly once as provisionDoneMsg.
type provisionSession struct {
	requests  chan provision.FileRequest
	responses chan selectorAnswer
	done      chan provisionDoneMsg
}

type selectorAnswer struct {
	path string
	err  error
}

// startProvision launches a provisioning pass for the plugin's metadata and
// returns the session plus the command that waits for its first prompt.
func startProvision(meta *metadata.Metadata) (*provisionSession, tea.Cmd) {
	s := &provisionSession{
		requests:  make(chan provision.FileRequest),
		responses: make(chan selectorAnswer),
		done:      make(chan provisionDoneMsg, 1),
	}

	sel := provision.SelectorFunc(func(_ context.Context, req provision.FileRequest) (string, error) {
		s.requests <- req
		answer := <-s.responses
		return answer.path, answer.err
	})

	go func() {
		req, err := provision.Provision(context.Background(), meta, sel)
		s.done <- provisionDoneMsg{Request: req, Err: err}
	}()

	return s, s.nextCmd()
}

// nextCmd waits for whichever comes first: another prompt or completion.
func (s *provisionSession) nextCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-s.requests:
			return promptFileMsg{Request: req}
		case msg := <-s.done:
			return msg
		}
	}
}

// answer resumes the provisioning goroutine with the user's selection and
// returns the command waiting for what happens next.
func (s *provisionSession) answer(path string) tea.Cmd {
	s.responses <- selectorAnswer{path: path}
	return s.nextCmd()
}

// cancel resumes the provisioning goroutine with a cancellation; Provision
// turns it into a CancelledError naming the abandoned requirement.
func (s *provisionSession) cancel() tea.Cmd {
	s.responses <- selectorAnswer{err: provision.ErrCancelled}
	return s.nextCmd()
}
