// Package tui is the Bubble Tea front end of the site-inspection capture.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/browser"
	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// Catalog lists what can be inspected.
type Catalog interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	ListSiteComponents(ctx context.Context, siteID int64) ([]domain.Component, error)
}

// Options configures an App. Zero values take the defaults.
type Options struct {
	User *domain.UserProfile
	// Restored is set when the workflow resumed a saved draft.
	Restored bool
	// MapError classifies catalog errors, typically
	// session.Manager.HandleAPIError.
	MapError func(error) error
	OpenURL  func(string) error
	Copy     func(string) error
	Now      func() time.Time
}

// dispatchMsg asks the App to apply an edit to the draft.
type dispatchMsg struct{ action capture.Action }

func dispatch(a capture.Action) tea.Cmd {
	return func() tea.Msg { return dispatchMsg{action: a} }
}

// saveStatusMsg signals that the workflow's save status changed.
type saveStatusMsg struct{}

// stepMovedMsg carries the result of Workflow.Next.
type stepMovedMsg struct{ err error }

// savedMsg carries the result of an explicit save.
type savedMsg struct{ err error }

// visitSubmittedMsg carries the result of Workflow.Submit.
type visitSubmittedMsg struct {
	created *domain.VisitCreated
	err     error
}

// discardedMsg carries the result of Workflow.Discard.
type discardedMsg struct{ err error }

// copyResultMsg reports the clipboard write.
type copyResultMsg struct{ err error }

// App is the root Bubbletea model.
type App struct {
	wf   *capture.Workflow
	opts Options

	site   siteModel
	comps  componentsModel
	before photosModel
	after  photosModel

	notice     string
	noticeBad  bool
	expired    bool
	submitting bool
	confirm    bool
	lastVisit  *domain.VisitCreated

	// startup is the load the first frame needs besides the site list.
	startup tea.Cmd

	width  int
	height int
	frame  int
}

// NewApp creates the capture TUI over wf.
func NewApp(wf *capture.Workflow, catalog Catalog, opts Options) App {
	if opts.MapError == nil {
		opts.MapError = func(err error) error { return apperr.Classify(err, apperr.ErrSessionExpired) }
	}
	if opts.OpenURL == nil {
		opts.OpenURL = browser.Open
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := App{
		wf:     wf,
		opts:   opts,
		site:   newSiteModel(catalog, opts.MapError, opts.OpenURL),
		comps:  newComponentsModel(catalog, opts.MapError),
		before: newPhotosModel(domain.PhaseBefore),
		after:  newPhotosModel(domain.PhaseAfter),
	}
	if opts.Restored {
		a.notice = "Resumed your saved inspection."
	}
	a.site.loading = true
	a, a.startup = a.enterStep()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.site.load(), a.startup)
}

// enterStep starts whatever the current step needs loaded.
func (a App) enterStep() (App, tea.Cmd) {
	if a.wf.CurrentStep() != capture.StepComponents {
		return a, nil
	}
	var cmd tea.Cmd
	a.comps, cmd = a.comps.ensureLoaded(a.wf.Draft())
	return a, cmd
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		d := a.wf.Draft()
		a.site, _ = a.site.Update(msg, d)
		a.before, _ = a.before.Update(msg, d)
		a.after, _ = a.after.Update(msg, d)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case saveStatusMsg:
		return a, nil

	case dispatchMsg:
		if err := a.wf.Dispatch(msg.action); err != nil {
			a.setError(err)
		}
		return a, nil

	case stepMovedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		return a.enterStep()

	case savedMsg:
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setNotice("Draft saved.")
		}
		return a, nil

	case visitSubmittedMsg:
		a.submitting = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.lastVisit = msg.created
		a.setNotice(fmt.Sprintf("Visit #%d submitted. Press c to copy its id.", msg.created.VisitID))
		return a, nil

	case discardedMsg:
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setNotice("Draft discarded.")
		}
		return a, nil

	case copyResultMsg:
		if msg.err != nil {
			a.setNotice(fmt.Sprintf("copy failed: %v", msg.err))
			a.noticeBad = true
		} else {
			a.setNotice("Visit id copied.")
		}
		return a, nil

	case openResultMsg:
		if msg.err != nil {
			a.setNotice(fmt.Sprintf("could not open a browser: %v", msg.err))
			a.noticeBad = true
		}
		return a, nil

	case sitesLoadedMsg:
		a.observe(msg.err)
		var cmd tea.Cmd
		a.site, cmd = a.site.Update(msg, a.wf.Draft())
		return a, cmd

	case componentsLoadedMsg:
		a.observe(msg.err)
		var cmd tea.Cmd
		a.comps, cmd = a.comps.Update(msg, a.wf.Draft())
		return a, cmd

	case photoLoadedMsg:
		var cmd tea.Cmd
		if msg.phase == domain.PhaseAfter {
			a.after, cmd = a.after.Update(msg, a.wf.Draft())
		} else {
			a.before, cmd = a.before.Update(msg, a.wf.Draft())
		}
		return a, cmd

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.expired {
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}
	if a.confirm {
		a.confirm = false
		if key == "y" {
			wf := a.wf
			return a, func() tea.Msg {
				return discardedMsg{err: wf.Discard(context.Background())}
			}
		}
		a.setNotice("")
		return a, nil
	}

	step := a.wf.CurrentStep()
	if a.isEditing() {
		return a.routeKey(msg, step)
	}
	if a.submitting {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "n", "tab", "right":
		if step == capture.StepReview {
			return a, nil
		}
		if !a.wf.CanAdvance() {
			a.setError(apperr.ErrValidationFailed)
			return a, nil
		}
		a.setNotice("")
		wf := a.wf
		return a, func() tea.Msg { return stepMovedMsg{err: wf.Next()} }
	case "b", "shift+tab", "left":
		a.setNotice("")
		if a.wf.Previous() {
			return a.enterStep()
		}
		return a, nil
	case "1", "2", "3", "4", "5":
		i, _ := strconv.Atoi(key) //nolint:errcheck // key is a digit
		if a.wf.GoTo(i - 1) {
			a.setNotice("")
			return a.enterStep()
		}
		a.setError(apperr.ErrValidationFailed)
		return a, nil
	case "ctrl+s":
		wf := a.wf
		return a, func() tea.Msg { return savedMsg{err: wf.SaveNow(context.Background())} }
	case "ctrl+x":
		a.confirm = true
		a.setNotice("Discard this inspection? Press y to confirm.")
		a.noticeBad = true
		return a, nil
	case "c":
		if a.lastVisit != nil {
			id, copyFn := strconv.FormatInt(a.lastVisit.VisitID, 10), a.opts.Copy
			return a, func() tea.Msg { return copyResultMsg{err: copyFn(id)} }
		}
		return a, nil
	case "enter":
		if step == capture.StepReview {
			return a.submit()
		}
	}
	return a.routeKey(msg, step)
}

func (a App) routeKey(msg tea.KeyMsg, step int) (tea.Model, tea.Cmd) {
	d := a.wf.Draft()
	var cmd tea.Cmd
	switch step {
	case capture.StepSite:
		a.site, cmd = a.site.Update(msg, d)
	case capture.StepComponents:
		a.comps, cmd = a.comps.Update(msg, d)
	case capture.StepBefore:
		a.before, cmd = a.before.Update(msg, d)
	case capture.StepAfter:
		a.after, cmd = a.after.Update(msg, d)
	}
	return a, cmd
}

func (a App) submit() (tea.Model, tea.Cmd) {
	if err := capture.Validate(a.wf.Draft()); err != nil {
		a.setError(err)
		return a, nil
	}
	a.submitting = true
	a.setNotice("")
	wf := a.wf
	return a, func() tea.Msg {
		created, err := wf.Submit(context.Background())
		return visitSubmittedMsg{created: created, err: err}
	}
}

func (a App) isEditing() bool {
	switch a.wf.CurrentStep() {
	case capture.StepSite:
		return a.site.editing
	case capture.StepBefore:
		return a.before.editing()
	case capture.StepAfter:
		return a.after.editing()
	}
	return false
}

func (a *App) setNotice(s string) {
	a.notice = s
	a.noticeBad = false
}

func (a *App) setError(err error) {
	a.observe(err)
	a.notice = apperr.Message(err)
	a.noticeBad = true
}

// observe locks the UI once the session is gone.
func (a *App) observe(err error) {
	if errors.Is(err, apperr.ErrSessionExpired) {
		a.expired = true
	}
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width) + "\n" + a.statusLine()
	steps := a.stepBar()

	var body, help string
	d := a.wf.Draft()
	switch step := a.wf.CurrentStep(); step {
	case capture.StepSite:
		body, help = a.site.View(d), a.site.helpKeys()
	case capture.StepComponents:
		body, help = a.comps.View(d), a.comps.helpKeys()
	case capture.StepBefore:
		body, help = a.before.View(d), a.before.helpKeys()
	case capture.StepAfter:
		body, help = a.after.View(d), a.after.helpKeys()
	default:
		body = reviewView(d, a.submitting)
		help = helpBar([2]string{"enter", "submit"}, [2]string{"b", "back"}, [2]string{"1-5", "steps"}, [2]string{"q", "quit"})
	}
	if a.lastVisit != nil && !a.isEditing() {
		help += "  " + helpEntry("c", "copy visit id")
	}

	if a.expired {
		body = "\n  " + bannerStyle.Render(apperr.Message(apperr.ErrSessionExpired)) + "\n\n" +
			dimStyle.Render("  Your inspection is saved on this device. Run `orangesites login`, then `orangesites capture` to continue.") + "\n"
		help = helpBar([2]string{"q", "quit"})
	}

	notice := ""
	if a.notice != "" && !a.expired {
		if a.noticeBad {
			notice = " " + rejectStyle.Render(a.notice)
		} else {
			notice = " " + okStyle.Render(a.notice)
		}
	}

	// Chrome: header(2) + steps(1) + notice(1) + help(1) = 5 lines
	const chrome = 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, steps, body, notice, help)
}

// statusLine shows who is signed in and the draft's save state.
func (a App) statusLine() string {
	var left string
	if u := a.opts.User; u != nil {
		name := u.FullName
		if name == "" {
			name = u.Email
		}
		left = " " + dimStyle.Render(name)
		if u.Role != "" {
			left += metaStyle.Render(" · " + string(u.Role))
		}
	}

	s := a.wf.SaveStatus()
	var right string
	switch s.State {
	case capture.SaveIdle:
	case capture.Saved:
		if s.LastSavedAt != nil {
			right = saveStyle(s.State).Render("saved " + formatTime(*s.LastSavedAt, a.opts.Now()))
		} else {
			right = saveStyle(s.State).Render("saved")
		}
	case capture.SaveFailed:
		right = saveStyle(s.State).Render("not saved, retrying")
	default:
		right = saveStyle(s.State).Render(s.State.String())
	}
	if right != "" {
		right += " "
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// stepBar renders the steps as equal-width columns with their status.
func (a App) stepBar() string {
	steps := a.wf.Steps()
	statuses := a.wf.StepStatuses()
	colWidth := a.width / max(len(steps), 1)
	var bar strings.Builder
	for i, s := range steps {
		label := metaStyle.Render(strconv.Itoa(i+1)) + " " + stepMark(statuses[i]) + " " + stepStyle(statuses[i]).Render(s.Title)
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		bar.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return bar.String()
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

// SaveStatusRelay forwards workflow save-status changes into a running
// program. Use Forward as capture.Options.OnSaveStatus.
type SaveStatusRelay struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach starts forwarding to p.
func (r *SaveStatusRelay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

// Forward never blocks. The workflow calls it while holding its save lock.
func (r *SaveStatusRelay) Forward(capture.SaveStatus) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		go p.Send(saveStatusMsg{})
	}
}
