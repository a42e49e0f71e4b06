// Package wizard is the terminal upload flow: product photos, an optional
// voice story, contact details, then a single submission that ends with a
// rendered landing page.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artisan-upload/artisan/internal/capture"
	"github.com/artisan-upload/artisan/internal/collect"
	"github.com/artisan-upload/artisan/internal/landing"
	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
	"github.com/artisan-upload/artisan/internal/orchestrator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type step int

const (
	stepImages step = iota
	stepAudio
	stepContact
	stepReview
	stepSubmitting
	stepDone
)

const (
	fieldName = iota
	fieldPhone
	fieldEmail
	fieldAddress
)

// Deps are the components the wizard drives.
type Deps struct {
	Session  *orchestrator.Session
	Images   *collect.ImageCollector
	Contact  *collect.ContactForm
	Recorder *capture.Recorder
	// Meter is optional and only used for display while recording.
	Meter *capture.LevelMeter
	// MediaBase prefixes saved file names in the landing page gallery.
	MediaBase string
	// LandingPath is where the rendered landing page is written.
	LandingPath string
}

// Wire connects every collector to the session so each accepted input is
// recorded there.
func (d Deps) Wire() {
	d.Images.OnAccept = d.Session.SetImages
	d.Contact.OnSubmit = d.Session.SetContact
	d.Recorder.OnAudio = d.Session.SetAudio
}

type (
	submitDoneMsg struct {
		handoff     *orchestrator.Handoff
		landingPath string
		err         error
	}

	recordTickMsg struct{}
)

// Model is the Bubble Tea model for the upload flow.
type Model struct {
	deps Deps
	ctx  context.Context

	step      step
	pathInput textinput.Model
	fields    []textinput.Model
	focus     int
	spinner   spinner.Model

	verdicts  []media.Verdict
	recording bool
	notice    string
	err       string

	handoff     *orchestrator.Handoff
	landingPath string
	quitting    bool
}

// New returns the wizard positioned on the image step.
func New(ctx context.Context, deps Deps) Model {
	if deps.LandingPath == "" {
		deps.LandingPath = "landing.html"
	}

	pi := textinput.New()
	pi.Placeholder = "photos/vase.jpg, photos/bowl.png"
	pi.CharLimit = 2000
	pi.Width = 60
	pi.Focus()

	labels := []string{"Artisan name", "Phone number", "Email (optional)", "Shop address"}
	fields := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 200
		ti.Width = 50
		fields[i] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8B500"))

	return Model{
		deps:      deps,
		ctx:       ctx,
		step:      stepImages,
		pathInput: pi,
		fields:    fields,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Handoff is the successful submission, if any.
func (m Model) Handoff() *orchestrator.Handoff {
	return m.handoff
}

// LandingPath is where the landing page was written after success.
func (m Model) LandingPath() string {
	return m.landingPath
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopRecording()
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.step != stepSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case recordTickMsg:
		if m.recording {
			return m, recordTick()
		}
		return m, nil

	case submitDoneMsg:
		if msg.err != nil {
			m.step = stepReview
			m.err = noticeFor(msg.err)
			return m, nil
		}
		m.handoff = msg.handoff
		m.landingPath = msg.landingPath
		m.err = ""
		m.step = stepDone
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepImages:
		if msg.String() == "enter" {
			return m.acceptImages()
		}

	case stepAudio:
		switch msg.String() {
		case "ctrl+r":
			return m.toggleRecording()
		case "enter":
			return m.acceptAudio()
		case "esc":
			m.stopRecording()
			return m.goTo(stepImages), nil
		}

	case stepContact:
		switch msg.String() {
		case "tab", "down":
			return m.focusField((m.focus + 1) % len(m.fields)), nil
		case "shift+tab", "up":
			return m.focusField((m.focus + len(m.fields) - 1) % len(m.fields)), nil
		case "enter":
			if m.focus < len(m.fields)-1 {
				return m.focusField(m.focus + 1), nil
			}
			return m.submitContact()
		case "esc":
			return m.goTo(stepAudio), nil
		}

	case stepReview:
		switch msg.String() {
		case "enter", "s":
			return m.submit()
		case "esc":
			return m.goTo(stepContact), nil
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case stepSubmitting:
		return m, nil

	case stepDone:
		switch msg.String() {
		case "q", "enter", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.step {
	case stepImages, stepAudio:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case stepContact:
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	}
	return m, cmd
}

func (m Model) goTo(s step) Model {
	m.step = s
	m.err = ""
	switch s {
	case stepImages, stepAudio:
		m.pathInput.SetValue("")
		m.pathInput.Focus()
	case stepContact:
		m = m.focusField(m.focus)
	}
	return m
}

func (m Model) focusField(i int) Model {
	for j := range m.fields {
		m.fields[j].Blur()
	}
	m.focus = i
	m.fields[i].Focus()
	return m
}

func (m Model) acceptImages() (tea.Model, tea.Cmd) {
	paths := splitPaths(m.pathInput.Value())
	if len(paths) == 0 {
		m.err = "Enter at least one image path"
		return m, nil
	}

	blobs, failed := loadPaths(paths)
	verdicts := append(failed, m.deps.Images.AcceptFiles(blobs)...)
	m.verdicts = verdicts

	if len(m.deps.Images.Files()) == 0 {
		m.err = "None of those files are images"
		return m, nil
	}
	m.notice = fmt.Sprintf("%d image(s) selected", len(m.deps.Images.Files()))
	return m.goTo(stepAudio), nil
}

func (m Model) acceptAudio() (tea.Model, tea.Cmd) {
	if m.recording {
		return m.toggleRecording()
	}

	path := strings.TrimSpace(m.pathInput.Value())
	if path == "" {
		// Audio is optional.
		return m.goTo(stepContact), nil
	}

	blob, err := media.LoadFile(path)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	if err := m.deps.Recorder.AttachFile(blob); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.notice = "Audio attached: " + blob.Name
	return m.goTo(stepContact), nil
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if !m.recording {
		if err := m.deps.Recorder.Start(m.ctx); err != nil {
			if errors.Is(err, capture.ErrDeviceUnavailable) {
				m.err = "No microphone available. Attach an audio file instead."
			} else {
				m.err = err.Error()
			}
			return m, nil
		}
		if m.deps.Meter != nil {
			m.deps.Meter.Reset()
		}
		m.recording = true
		m.err = ""
		return m, recordTick()
	}

	m.recording = false
	blob, err := m.deps.Recorder.Stop()
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.notice = fmt.Sprintf("Recorded %d KB of audio", blob.Size()/1024)
	return m.goTo(stepContact), nil
}

func (m *Model) stopRecording() {
	if m.recording {
		m.recording = false
		_, _ = m.deps.Recorder.Stop()
	}
}

func (m Model) submitContact() (tea.Model, tea.Cmd) {
	c := models.Contact{
		ArtisanName: strings.TrimSpace(m.fields[fieldName].Value()),
		PhoneNum:    strings.TrimSpace(m.fields[fieldPhone].Value()),
		Email:       strings.TrimSpace(m.fields[fieldEmail].Value()),
		ShopAddress: strings.TrimSpace(m.fields[fieldAddress].Value()),
	}
	if err := m.deps.Contact.Submit(c); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.step = stepReview
	m.err = ""
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.deps.Session.CanSubmit() {
		var missing []string
		if len(m.deps.Session.Images()) == 0 {
			missing = append(missing, "images")
		}
		if m.deps.Session.Contact() == nil {
			missing = append(missing, "contact")
		}
		m.err = (&orchestrator.IncompleteError{Missing: missing}).Error()
		return m, nil
	}

	m.step = stepSubmitting
	m.err = ""
	return m, tea.Batch(m.spinner.Tick, submitCmd(m.ctx, m.deps))
}

func submitCmd(ctx context.Context, deps Deps) tea.Cmd {
	return func() tea.Msg {
		handoff, err := deps.Session.Submit(ctx)
		if err != nil {
			return submitDoneMsg{err: err}
		}
		path, err := writeLanding(ctx, deps, handoff)
		if err != nil {
			return submitDoneMsg{handoff: handoff, err: fmt.Errorf("saved, but the landing page could not be written: %w", err)}
		}
		return submitDoneMsg{handoff: handoff, landingPath: path}
	}
}

// writeLanding renders the landing page for a successful submission. Saved
// server images win over local previews.
func writeLanding(ctx context.Context, deps Deps, h *orchestrator.Handoff) (string, error) {
	contact := h.Contact
	page := landing.Build(landing.Input{
		Backend: landing.FromSaveResponse(&h.Result, deps.MediaBase),
		Contact: &contact,
		Images:  deps.Images.PreviewPaths(),
	})

	if err := landing.WriteFile(ctx, deps.LandingPath, page); err != nil {
		return "", err
	}
	return deps.LandingPath, nil
}

func recordTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return recordTickMsg{}
	})
}

func noticeFor(err error) string {
	var serr *orchestrator.SubmitError
	if errors.As(err, &serr) {
		return serr.Notice()
	}
	return err.Error()
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// loadPaths reads every path, expanding directories one level deep. Paths
// that cannot be read are reported as rejected verdicts.
func loadPaths(paths []string) ([]media.Blob, []media.Verdict) {
	var blobs []media.Blob
	var failed []media.Verdict
	reject := func(name string, err error) {
		failed = append(failed, media.Verdict{Name: name, Kind: media.KindImage, Reason: err.Error()})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			reject(p, err)
			continue
		}
		if !info.IsDir() {
			b, err := media.LoadFile(p)
			if err != nil {
				reject(p, err)
				continue
			}
			blobs = append(blobs, b)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			reject(p, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			b, err := media.LoadFile(filepath.Join(p, e.Name()))
			if err != nil {
				reject(e.Name(), err)
				continue
			}
			blobs = append(blobs, b)
		}
	}
	return blobs, failed
}
