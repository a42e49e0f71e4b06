// Package orchestrator coordinates one upload session: it buffers the
// images, the recording and the contact details until the artisan submits,
// sends them in a single request and hands the result to the landing page.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/artisan-upload/artisan/internal/client"
	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
)

type State int

const (
	Empty State = iota
	Collecting
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Collecting:
		return "collecting"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Submitter sends a bulk submission. *client.Client implements it.
type Submitter interface {
	SaveArtisanData(ctx context.Context, sub client.Submission) (*models.SaveResponse, error)
}

var ErrSubmitInProgress = errors.New("a submission is already in progress")

// IncompleteError lists what must be collected before submitting.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "cannot submit, missing " + strings.Join(e.Missing, " and ")
}

type FailureKind int

const (
	FailureUnreachable FailureKind = iota
	FailureRejected
	FailureServer
)

// SubmitError describes a failed submission. The session keeps everything
// that was collected, so the user can simply try again.
type SubmitError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Notice()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Notice is the message to show the user.
func (e *SubmitError) Notice() string {
	switch e.Kind {
	case FailureUnreachable:
		return "Could not reach the server. It may be down, please try again later."
	case FailureRejected:
		return "The server rejected the upload: " + e.Message
	default:
		return "The server could not save your upload. Please try again."
	}
}

func classify(err error) *SubmitError {
	var rejected *client.RejectedError
	var serverErr *client.ServerError
	switch {
	case errors.As(err, &rejected):
		return &SubmitError{Kind: FailureRejected, Message: rejected.Message, Err: err}
	case errors.As(err, &serverErr):
		return &SubmitError{Kind: FailureServer, Err: err}
	case errors.Is(err, client.ErrUnreachable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &SubmitError{Kind: FailureUnreachable, Err: err}
	default:
		return &SubmitError{Kind: FailureServer, Err: err}
	}
}

// Handoff is what the landing page receives after a successful submission.
// It is a copy and is not persisted.
type Handoff struct {
	Result  models.SaveResponse
	Images  []media.Blob
	Audio   *media.Blob
	Contact models.Contact
}

// Session is one visit to the upload flow.
type Session struct {
	submitter Submitter

	mu            sync.Mutex
	state         State
	images        []media.Blob
	audio         *media.Blob
	contact       *models.Contact
	processing    bool
	result        *models.SaveResponse
	onStateChange func(State)
}

func New(submitter Submitter) *Session {
	return &Session{submitter: submitter}
}

// OnStateChange registers a callback invoked after every transition.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

// transition must be called with s.mu held. It returns the callback to run
// after unlocking.
func (s *Session) transition(to State) func() {
	if s.state == to {
		return func() {}
	}
	slog.Debug("Upload session state", "from", s.state, "to", to)
	s.state = to
	fn := s.onStateChange
	return func() {
		if fn != nil {
			fn(to)
		}
	}
}

func (s *Session) collect(update func()) {
	s.mu.Lock()
	update()
	notify := func() {}
	if s.state == Empty || s.state == Success {
		notify = s.transition(Collecting)
	}
	s.mu.Unlock()
	notify()
}

// SetImages replaces the held images.
func (s *Session) SetImages(images []media.Blob) {
	s.collect(func() {
		s.images = append([]media.Blob(nil), images...)
	})
}

func (s *Session) SetAudio(audio media.Blob) {
	s.collect(func() {
		s.audio = &audio
	})
}

func (s *Session) SetContact(contact models.Contact) {
	s.collect(func() {
		s.contact = &contact
	})
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Processing reports whether a request is in flight.
func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// CanSubmit reports whether the submit action should be enabled.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.processing && len(s.missing()) == 0
}

func (s *Session) Images() []media.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.Blob(nil), s.images...)
}

func (s *Session) Audio() *media.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return nil
	}
	a := *s.audio
	return &a
}

func (s *Session) Contact() *models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contact == nil {
		return nil
	}
	c := *s.contact
	return &c
}

// Result is the last successful server response, if any.
func (s *Session) Result() *models.SaveResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

func (s *Session) missing() []string {
	var missing []string
	if len(s.images) == 0 {
		missing = append(missing, "images")
	}
	if s.contact == nil {
		missing = append(missing, "contact")
	}
	return missing
}

// Submit sends everything collected in one request. Only one submission may
// be in flight; an incomplete session is refused without any state change.
func (s *Session) Submit(ctx context.Context) (*Handoff, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if missing := s.missing(); len(missing) > 0 {
		s.mu.Unlock()
		return nil, &IncompleteError{Missing: missing}
	}

	handoff := Handoff{
		Images:  append([]media.Blob(nil), s.images...),
		Contact: *s.contact,
	}
	if s.audio != nil {
		a := *s.audio
		handoff.Audio = &a
	}
	s.processing = true
	notify := s.transition(Submitting)
	s.mu.Unlock()
	notify()

	resp, err := s.submitter.SaveArtisanData(ctx, client.Submission{
		Contact: handoff.Contact,
		Images:  handoff.Images,
		Audio:   handoff.Audio,
	})

	s.mu.Lock()
	s.processing = false
	if err != nil {
		failed := s.transition(Failed)
		restored := s.transition(Collecting)
		s.mu.Unlock()
		failed()
		restored()

		serr := classify(err)
		slog.Warn("Submission failed", "kind", serr.Kind, "err", err)
		return nil, serr
	}

	s.result = resp
	handoff.Result = *resp
	done := s.transition(Success)
	s.mu.Unlock()
	done()

	slog.Info("Submission saved", "manifest", resp.Filename, "images", len(resp.Images))
	return &handoff, nil
}
