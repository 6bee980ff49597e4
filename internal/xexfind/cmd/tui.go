package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"xexfind/internal/ui/colorize"
	"xexfind/internal/xexfind/styles"
)

type viewMode int

const (
	viewOverview viewMode = iota
	viewTables
	viewDetail
)

type tableItem struct {
	index   int
	offset  uint32
	count   int
	preview [4]uint32
}

func (i tableItem) Title() string {
	// This is used for filtering - return plain text
	return fmt.Sprintf("%08x  ~%d entries", i.offset, i.count)
}

func (i tableItem) FilterValue() string {
	return fmt.Sprintf("%08x %d", i.offset, i.count)
}

// Custom item delegate for the candidate table list
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(tableItem)
	if !ok {
		return
	}

	var addrStyle lipgloss.Style
	var indicator string

	if index == m.Index() {
		indicator = ">"
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	} else {
		indicator = " "
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	}

	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	previewStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	words := make([]string, 0, len(i.preview))
	for _, v := range i.preview {
		words = append(words, fmt.Sprintf("%08X", v))
	}

	fmt.Fprintf(w, " %s %s  %s  %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%08x", i.offset)),
		countStyle.Render(fmt.Sprintf("~%4d entries", i.count)),
		previewStyle.Render(strings.Join(words, " ")))
}

type analyzedMsg struct {
	report *Report
	data   []byte
	err    error
}

func analyzeFileCmd(path string, cfg config) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return analyzedMsg{err: err}
		}
		report, err := analyze(path, data, cfg)
		if err != nil {
			return analyzedMsg{err: err}
		}
		return analyzedMsg{report: report, data: data}
	}
}

type model struct {
	viewport   viewport.Model
	tablesList list.Model
	detailView viewport.Model
	spinner    spinner.Model
	mode       viewMode
	filepath   string
	cfg        config
	report     *Report
	data       []byte
	scanErr    error
	loading    bool
	width      int
	height     int
}

func NewModel(filepath string, cfg config) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	delegate := itemDelegate{}

	tablesList := list.New([]list.Item{}, delegate, 80, 24)
	tablesList.SetShowStatusBar(false)
	tablesList.SetFilteringEnabled(true)
	tablesList.Title = "Candidate Tables"
	tablesList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	tablesList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	dvp := viewport.New()
	dvp.SetWidth(80)
	dvp.SetHeight(24)

	m := model{
		viewport:   vp,
		tablesList: tablesList,
		detailView: dvp,
		spinner:    s,
		mode:       viewOverview,
		filepath:   filepath,
		cfg:        cfg,
		loading:    true,
		width:      80,
		height:     24,
	}

	m.updateOverview()

	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		analyzeFileCmd(m.filepath, m.cfg),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case analyzedMsg:
		m.report = msg.report
		m.data = msg.data
		m.scanErr = msg.err
		m.loading = false
		if m.report != nil {
			m.updateTablesList()
		}
		m.updateOverview()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.updateOverview()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.tablesList.SetWidth(msg.Width)
			m.tablesList.SetHeight(msg.Height - 2)
			m.detailView.SetWidth(msg.Width)
			m.detailView.SetHeight(msg.Height - 2)

			m.updateOverview()
		}

	case tea.KeyMsg:
		// If we're in tables view and the list is filtering, let it handle
		// the keys first
		if m.mode == viewTables && m.tablesList.FilterState() == list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			default:
				// Pass all other keys to the list when filtering
				break
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "o":
				m.mode = viewOverview
				return m, nil
			case "t":
				if m.tableCount() > 0 {
					m.mode = viewTables
				}
				return m, nil
			case "enter", "d":
				if m.mode == viewTables || msg.String() == "d" {
					if m.showSelectedDetail() {
						m.mode = viewDetail
					}
				}
				return m, nil
			case "tab":
				switch m.mode {
				case viewOverview:
					if m.tableCount() > 0 {
						m.mode = viewTables
					}
				case viewTables:
					if m.showSelectedDetail() {
						m.mode = viewDetail
					}
				case viewDetail:
					m.mode = viewOverview
				}
				return m, nil
			case "shift+tab":
				switch m.mode {
				case viewOverview:
					if m.showSelectedDetail() {
						m.mode = viewDetail
					}
				case viewTables:
					m.mode = viewOverview
				case viewDetail:
					if m.tableCount() > 0 {
						m.mode = viewTables
					}
				}
				return m, nil
			}
		}
	}

	// Update the active view
	switch m.mode {
	case viewTables:
		m.tablesList, cmd = m.tablesList.Update(msg)
	case viewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewTables:
		content = m.tablesList.View()
	case viewDetail:
		content = m.detailView.View()
	default:
		content = m.viewport.View()
	}

	// Add menu bar at the bottom
	var menu string
	switch m.mode {
	case viewTables:
		menu = " Enter: annotate table • O: overview • Tab: cycle • Q: quit "
	case viewDetail:
		menu = " O: overview • T: tables • Tab: cycle • Q: quit "
	default: // viewOverview
		if m.tableCount() > 0 {
			menu = " T: tables • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m model) tableCount() int {
	if m.report == nil {
		return 0
	}
	return len(m.report.candidates)
}

func (m *model) updateOverview() {
	// Get relative path from current directory
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	var markdown string
	if m.scanErr != nil {
		markdown = fmt.Sprintf("# xexfind\n\n```\n; %s\n```\n\n**Error:** %v",
			relPath, m.scanErr)
	} else if m.report != nil {
		markdown = buildMarkdown(m.report, m.data, false, m.cfg.top)
	} else {
		markdown = fmt.Sprintf("# xexfind\n\n```\n; %s\n```", relPath)
	}

	if m.loading {
		markdown += fmt.Sprintf("\n\n%s Analyzing image...", m.spinner.View())
	}

	// Render markdown using glamour
	width := m.width
	if width == 0 {
		width = 80
	}
	renderer := styles.GetMarkdownRenderer(width - 2)
	rendered, _ := renderer.Render(markdown)
	m.viewport.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func (m *model) updateTablesList() {
	items := make([]list.Item, 0, len(m.report.candidates))
	for idx, c := range m.report.candidates {
		items = append(items, tableItem{
			index:   idx,
			offset:  c.Offset,
			count:   c.Count,
			preview: c.Preview,
		})
	}

	m.tablesList.SetItems(items)
	m.tablesList.Title = fmt.Sprintf("Candidate Tables (%d total)", len(items))
}

// showSelectedDetail fills the detail view with an annotated dump of the
// selected candidate. Reports whether there was anything to show.
func (m *model) showSelectedDetail() bool {
	if m.report == nil || len(m.report.candidates) == 0 {
		return false
	}

	idx := 0
	if selected := m.tablesList.SelectedItem(); selected != nil {
		if item, ok := selected.(tableItem); ok {
			idx = item.index
		}
	}
	if idx >= len(m.report.candidates) {
		return false
	}

	c := m.report.candidates[idx]
	lines := dumpLines(m.data, c, m.report.base, detailWords)
	dump := strings.Join(lines, "\n")
	colorized, err := colorize.ColorizeDump(dump)
	if err != nil {
		colorized = dump
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)
	header := headerStyle.Render(fmt.Sprintf("Table at %s (~%d entries)",
		hexWord(c.Offset), c.Count))

	m.detailView.SetContent(header + "\n\n" + colorized)
	m.detailView.GotoTop()
	return true
}
