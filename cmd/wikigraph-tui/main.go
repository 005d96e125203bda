package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ebonicra/WikiGraphExplorer/internal/app"
	"github.com/ebonicra/WikiGraphExplorer/internal/config"
	"github.com/ebonicra/WikiGraphExplorer/internal/crawl"
	"github.com/ebonicra/WikiGraphExplorer/internal/logging"
	"github.com/ebonicra/WikiGraphExplorer/internal/pointer"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

// levelMsg reports that a depth level started.
type levelMsg struct {
	depth    int
	frontier int
}

// recordMsg reports a processed article.
type recordMsg struct {
	count int
	title string
}

// crawlDone carries the finished crawl.
type crawlDone struct {
	records   []snapshot.Record
	levels    int
	cancelled bool
	truncated bool
}

// reportMsg carries the markdown report once results are persisted.
type reportMsg struct {
	markdown string
}

// job holds everything the crawl and persistence steps need.
type job struct {
	cfg         *config.Config
	logger      *slog.Logger
	start       string
	maxDepth    int
	maxNodes    int
	output      string
	pointerPath string
	neo4j       bool
}

type model struct {
	job     job
	source  crawl.LinkSource
	events  chan tea.Msg
	cancel  context.CancelFunc
	spinner spinner.Model

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	depth     int
	frontier  int
	count     int
	lastTitle string
	stopping  bool
	done      bool
	report    string
	pendingMD string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Faint(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

func initialModel(j job, source crawl.LinkSource) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		job:     j,
		source:  source,
		events:  make(chan tea.Msg, 64),
		spinner: sp,
	}
}

func (m *model) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return tea.Batch(m.spinner.Tick, m.runCrawl(ctx), waitForEvent(m.events))
}

// runCrawl starts the crawl in the background. Progress is streamed through
// m.events; the final crawlDone is sent on the same channel.
func (m *model) runCrawl(ctx context.Context) tea.Cmd {
	events := m.events
	j := m.job
	source := m.source
	return func() tea.Msg {
		levels := 0
		c := crawl.New(j.start, source, crawl.Options{
			Workers: j.cfg.Workers,
			Logger:  j.logger,
			OnLevel: func(depth, frontier int) {
				levels = depth + 1
				events <- levelMsg{depth: depth, frontier: frontier}
			},
			OnRecord: func(count int, rec snapshot.Record) {
				// Progress is lossy; the final count arrives with crawlDone.
				select {
				case events <- recordMsg{count: count, title: rec.Title}:
				default:
				}
			},
		})
		records := c.Run(ctx, j.maxDepth, j.maxNodes)
		events <- crawlDone{
			records:   records,
			levels:    levels,
			cancelled: c.Cancelled(),
			truncated: c.Truncated(),
		}
		return nil
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// finish persists a usable crawl, optionally loads Neo4j, and builds the
// report.
func finish(j job, done crawlDone) tea.Cmd {
	return func() tea.Msg {
		s := summary{
			start:     j.start,
			records:   done.records,
			levels:    done.levels,
			cancelled: done.cancelled,
			truncated: done.truncated,
			outcome:   app.Judge(len(done.records), done.cancelled),
			output:    j.output,
			neo4j:     j.neo4j && len(done.records) > 0,
		}
		if s.outcome == app.Saved {
			s.saveErr = app.Persist(done.records, j.output, j.pointerPath)
		}
		if s.neo4j {
			s.neo4jErr = app.LoadNeo4j(context.Background(), j.cfg, done.records, j.logger)
		}
		return reportMsg{markdown: buildReport(s)}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewportHeight := max(m.height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		if m.pendingMD != "" {
			m.setReport(m.pendingMD)
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case levelMsg:
		m.depth = msg.depth
		m.frontier = msg.frontier
		return m, waitForEvent(m.events)

	case recordMsg:
		m.count = max(m.count, msg.count)
		m.lastTitle = msg.title
		return m, waitForEvent(m.events)

	case crawlDone:
		m.count = len(msg.records)
		m.done = true
		return m, finish(m.job, msg)

	case reportMsg:
		m.pendingMD = msg.markdown
		if m.ready {
			m.setReport(msg.markdown)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) setReport(md string) {
	rendered, err := renderMarkdown(md, m.width)
	if err != nil {
		rendered = md
	}
	m.report = rendered
	m.viewport.SetContent(rendered)
	m.viewport.GotoTop()
	m.pendingMD = ""
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.done {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			if m.stopping && msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	if m.done && m.report != "" {
		var b strings.Builder
		b.WriteString(m.viewport.View())
		b.WriteByte('\n')
		b.WriteString(helpStyle.Render("[↑/↓] scroll  [q] quit"))
		return b.String()
	}
	return m.progressView()
}

func (m *model) progressView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("wikigraph: " + m.job.start))
	b.WriteString("\n\n")

	status := m.spinner.View() + " crawling"
	switch {
	case m.done:
		status = "  saving results"
	case m.stopping:
		status = m.spinner.View() + warnStyle.Render(" stopping, waiting for in-flight pages")
	}
	b.WriteString(status)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s %d/%d\n", labelStyle.Render("level   "), m.depth, m.job.maxDepth-1)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("frontier"), m.frontier)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("articles"), m.count)
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("last    "), truncate(m.lastTitle, m.width-14))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(app.MsgStopHintInteractive))
	return b.String()
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func main() {
	depth := flag.Int("d", 3, "the parsing depth")
	page := flag.String("p", "Welsh Corgi", "the starting article")
	maxArticles := flag.Int("m", 1000, "the maximum number of articles")
	output := flag.String("o", snapshot.DefaultFile, "snapshot file to write")
	pointerPath := flag.String("pointer", pointer.DefaultPath, "file recording the latest snapshot location")
	loadNeo4j := flag.Bool("neo4j", false, "load links into the neo4j database")
	logFile := flag.String("log", "", "write logs to this file (default: discard)")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	maxDepth, maxNodes, err := config.CrawlLimits(*depth, *maxArticles, cfg.Workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *loadNeo4j && !cfg.Neo4jEnabled() {
		fmt.Fprintf(os.Stderr, "error: %v\n", config.ErrNeo4jNotConfigured)
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)

	source, release := app.NewSource(cfg, logger)
	defer release()

	m := initialModel(job{
		cfg:         cfg,
		logger:      logger,
		start:       *page,
		maxDepth:    maxDepth,
		maxNodes:    maxNodes,
		output:      *output,
		pointerPath: *pointerPath,
		neo4j:       *loadNeo4j,
	}, source)

	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
