// Package tui is the interactive catalog browser.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/clipboard"
	"github.com/ChoBioLab/xenium-explorer-files/internal/filter"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/render"
)

// Loader fetches the catalog. *catalog.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
	Location() string
}

// Copier places text on the clipboard. *clipboard.Copier satisfies it.
type Copier interface {
	Copy(text string) (string, error)
}

// Config configures a Model.
type Config struct {
	Loader            Loader
	Copier            Copier
	DefaultSourceType string
	NoticeTimeout     time.Duration
}

// CatalogMsg reports the outcome of a catalog load. Send it to the
// program to push a reload from outside, e.g. a file watcher.
type CatalogMsg struct {
	Catalog *catalog.Catalog
	Err     error
}

type copyResultMsg struct {
	uri    string
	method string
	err    error
}

type noticeExpiredMsg struct{ id int }

type loadState int

const (
	stateLoading loadState = iota
	stateLoaded
	stateFailed
)

const allLabel = "All"

// control indexes; the metadata choices come first in filter.MetadataFields
// order.
const (
	focusSearch = iota + 5
	focusDate
	focusTable
	focusCount
)

type choice struct {
	field  filter.Field
	values []string // values[0] is "" meaning all
	index  int
}

func (c choice) current() string { return c.values[c.index] }

func (c choice) display() string {
	if c.index == 0 {
		return allLabel
	}
	return c.values[c.index]
}

// Model is the bubbletea model of the browser.
type Model struct {
	loader        Loader
	copier        Copier
	noticeTimeout time.Duration

	session *filter.Session
	state   loadState
	page    render.Page

	choices []choice
	search  textinput.Model
	date    textinput.Model
	table   table.Model
	focus   int

	notice      string
	noticeError bool
	noticeID    int

	keys     keyMap
	help     help.Model
	styles   Styles
	width    int
	height   int
	quitting bool
}

// New creates a browser model.
func New(cfg Config) Model {
	timeout := cfg.NoticeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "search locations"
	search.CharLimit = 256
	search.Width = 30

	date := textinput.New()
	date.Prompt = ""
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = 10
	date.Width = 12

	styles := DefaultStyles()
	t := table.New(
		table.WithColumns(columns(120)),
		table.WithHeight(15),
		table.WithWidth(120),
	)
	t.SetStyles(styles.Table)

	m := Model{
		loader:        cfg.Loader,
		copier:        cfg.Copier,
		noticeTimeout: timeout,
		session:       filter.NewSession(cfg.DefaultSourceType),
		search:        search,
		date:          date,
		table:         t,
		focus:         focusTable,
		keys:          defaultKeyMap(),
		help:          help.New(),
		styles:        styles,
		width:         120,
		height:        30,
	}
	m.choices = make([]choice, len(filter.MetadataFields))
	for i, f := range filter.MetadataFields {
		m.choices[i] = choice{field: f, values: []string{""}}
	}
	m.syncControls()
	m.applyFocus()
	return m
}

// Init starts the initial catalog load.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	loader := m.loader
	return func() tea.Msg {
		cat, err := loader.Load(context.Background())
		return CatalogMsg{Catalog: cat, Err: err}
	}
}

func (m Model) copyCmd(uri string) tea.Cmd {
	copier := m.copier
	return func() tea.Msg {
		if copier == nil {
			return copyResultMsg{uri: uri, err: fmt.Errorf("no clipboard configured")}
		}
		method, err := copier.Copy(uri)
		return copyResultMsg{uri: uri, method: method, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-14, 3))
		return m, nil

	case CatalogMsg:
		return m.handleCatalog(msg)

	case copyResultMsg:
		if msg.err != nil {
			logging.Warn("copy failed", zap.String("uri", msg.uri), zap.Error(msg.err))
		} else {
			logging.Debug("copied", zap.String("uri", msg.uri), zap.String("method", msg.method))
		}
		cmd := m.showNotice(clipboard.Notice(msg.err), msg.err != nil)
		return m, cmd

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.noticeError = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleCatalog(msg CatalogMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if m.session.Loaded() {
			// A failed reload keeps the catalog already on screen.
			cmd := m.showNotice(catalog.LoadFailureMessage, true)
			return m, cmd
		}
		m.state = stateFailed
		m.page = render.ErrorPage(msg.Err)
		return m, nil
	}
	if msg.Catalog == nil {
		return m, nil
	}
	reload := m.session.Loaded()
	m.state = stateLoaded
	m.session.SetCatalog(msg.Catalog)
	m.syncControls()
	m.refresh()
	if reload {
		cmd := m.showNotice(fmt.Sprintf("Catalog reloaded (%d files)", msg.Catalog.FileCount), false)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	typing := m.focus == focusSearch || m.focus == focusDate

	switch {
	case key.Matches(msg, m.keys.Force):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Quit) && !typing:
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % focusCount
		cmd := m.applyFocus()
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		m.focus = (m.focus + focusCount - 1) % focusCount
		cmd := m.applyFocus()
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.Help) && !typing:
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.state != stateLoaded {
		return m, nil
	}

	if key.Matches(msg, m.keys.Reset) {
		m.session.Reset()
		m.syncControls()
		m.refresh()
		return m, nil
	}

	switch {
	case m.focus < len(m.choices):
		return m.handleChoiceKey(msg)
	case typing:
		return m.handleInputKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

func (m Model) handleChoiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.choices[m.focus]
	switch {
	case key.Matches(msg, m.keys.Right):
		c.index = (c.index + 1) % len(c.values)
	case key.Matches(msg, m.keys.Left):
		c.index = (c.index + len(c.values) - 1) % len(c.values)
	case key.Matches(msg, m.keys.Clear):
		c.index = 0
	default:
		return m, nil
	}
	m.session.Set(c.field, c.current())
	m.refresh()
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	input, field := &m.search, filter.FieldSearch
	if m.focus == focusDate {
		input, field = &m.date, filter.FieldDate
	}
	if key.Matches(msg, m.keys.Clear) {
		input.SetValue("")
	} else {
		var cmd tea.Cmd
		*input, cmd = input.Update(msg)
		if input.Value() == m.session.Criteria().Value(field) {
			return m, cmd
		}
		m.session.Set(field, input.Value())
		m.refresh()
		return m, cmd
	}
	m.session.Set(field, "")
	m.refresh()
	return m, nil
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Copy) {
		if len(m.page.Rows) == 0 {
			return m, nil
		}
		cursor := m.table.Cursor()
		if cursor < 0 || cursor >= len(m.page.Rows) {
			return m, nil
		}
		return m, m.copyCmd(m.page.Rows[cursor].URI)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// showNotice replaces the current notice and schedules its dismissal.
// Only the most recent notice is dismissed by its own timer.
func (m *Model) showNotice(text string, isError bool) tea.Cmd {
	m.noticeID++
	id := m.noticeID
	m.notice = text
	m.noticeError = isError
	return tea.Tick(m.noticeTimeout, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// refresh re-renders the session view into the page and table.
func (m *Model) refresh() {
	m.page = render.Render(m.session.View(), m.session.Catalog())
	rows := make([]table.Row, len(m.page.Rows))
	for i, r := range m.page.Rows {
		rows[i] = table.Row(r.Cells)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) || m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
}

// syncControls rebuilds the controls from the session's options and
// criteria. A criterion value missing from the catalog still gets an
// entry so it stays visible and selectable.
func (m *Model) syncControls() {
	criteria := m.session.Criteria()
	for i := range m.choices {
		c := &m.choices[i]
		values := append([]string(nil), m.session.OptionsFor(c.field)...)
		cur := criteria.Value(c.field)
		if cur != "" && !contains(values, cur) {
			values = append(values, cur)
			sort.Strings(values)
		}
		c.values = append([]string{""}, values...)
		c.index = 0
		for j, v := range c.values {
			if v == cur {
				c.index = j
				break
			}
		}
	}
	m.search.SetValue(criteria.Search)
	m.date.SetValue(criteria.Date)
}

func (m *Model) applyFocus() tea.Cmd {
	m.search.Blur()
	m.date.Blur()
	m.table.Blur()
	switch m.focus {
	case focusSearch:
		return m.search.Focus()
	case focusDate:
		return m.date.Focus()
	case focusTable:
		m.table.Focus()
	}
	return nil
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Xenium Explorer Files"))
	b.WriteString("\n")

	switch m.state {
	case stateLoading:
		b.WriteString(m.styles.Summary.Render("Loading " + m.location() + " ..."))
		b.WriteString("\n")
	case stateFailed:
		b.WriteString(m.styles.Error.Render(m.page.Message))
		b.WriteString("\n")
	default:
		s := m.page.Summary
		b.WriteString(m.styles.Summary.Render(fmt.Sprintf("Showing %d of %d files  |  Last updated: %s",
			s.FilteredCount, s.TotalCount, s.LastUpdated)))
		b.WriteString("\n\n")
		b.WriteString(m.controlsView())
		b.WriteString("\n")
		if m.page.Empty {
			b.WriteString(m.styles.Placeholder.Render(m.page.Message))
		} else {
			b.WriteString(m.table.View())
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		style := m.styles.Notice
		if m.noticeError {
			style = m.styles.NoticeError
		}
		b.WriteString(style.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) controlsView() string {
	var cells []string
	for i, c := range m.choices {
		cells = append(cells, m.control(i, c.field.Label(), c.display()))
	}
	cells = append(cells, m.control(focusSearch, filter.FieldSearch.Label(), m.search.View()))
	dateLabel := filter.FieldDate.Label()
	if m.session.Criteria().SourceType != catalog.SourceSopa {
		dateLabel += m.styles.Hint.Render(" (sopa only)")
	}
	cells = append(cells, m.control(focusDate, dateLabel, m.date.View()))
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) control(index int, label, value string) string {
	labelStyle, valueStyle := m.styles.Label, m.styles.Value
	if m.focus == index {
		labelStyle, valueStyle = m.styles.FocusedLabel, m.styles.FocusedValue
	}
	return lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(label), valueStyle.Render(value)) + " "
}

func (m Model) location() string {
	if m.loader == nil {
		return "catalog"
	}
	return m.loader.Location()
}

// columns sizes the table for a terminal width; the location column takes
// the remaining space.
func columns(width int) []table.Column {
	widths := []int{11, 14, 10, 10, 24, 19}
	used := 0
	for _, w := range widths {
		used += w + 2
	}
	cols := make([]table.Column, len(render.Columns))
	for i, title := range render.Columns {
		w := max(width-used-2, 30)
		if i < len(widths) {
			w = widths[i]
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
