package main

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"invoice-market-tui/config"
	"invoice-market-tui/contracts"
	"invoice-market-tui/helpers"
	"invoice-market-tui/session"
	"invoice-market-tui/styles"
	"invoice-market-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// logSink is the buffer behind the log panel. The session logs from command
// goroutines, so writes are serialized.
type logSink struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *logSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

// changeFeedSize is the buffer between session observers and the update loop
const changeFeedSize = 64

// changeFeed carries session changes to the update loop. When the buffer is
// full, state and reload changes are held back and delivered once there is
// room again; notices and history changes are dropped.
type changeFeed struct {
	ch      chan session.Change
	mu      sync.Mutex
	pending []session.Change // at most a reload followed by a state change
	logger  *log.Logger
}

func newChangeFeed(size int, logger *log.Logger) *changeFeed {
	return &changeFeed{ch: make(chan session.Change, size), logger: logger}
}

func (f *changeFeed) push(c session.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.flushLocked()
	if len(f.pending) == 0 {
		select {
		case f.ch <- c:
			return
		default:
		}
	}

	switch c.Kind {
	case session.ChangeReload:
		// a reload supersedes anything still waiting
		f.pending = []session.Change{c}
	case session.ChangeState:
		// the model reads a fresh snapshot, so one state change is enough
		if n := len(f.pending); n > 0 && f.pending[n-1].Kind == session.ChangeState {
			f.pending[n-1] = c
		} else {
			f.pending = append(f.pending, c)
		}
	default:
		f.logger.Warn("dropped session change", "kind", c.Kind)
	}
}

func (f *changeFeed) flushLocked() {
	for len(f.pending) > 0 {
		select {
		case f.ch <- f.pending[0]:
			f.pending = f.pending[1:]
		default:
			return
		}
	}
}

// next blocks until a change is available
func (f *changeFeed) next() session.Change {
	c := <-f.ch
	f.mu.Lock()
	f.flushLocked()
	f.mu.Unlock()
	return c
}

// confirmDialog asks before a transaction is sent
type confirmDialog struct {
	question    string
	label       string
	yesSelected bool
	action      tea.Cmd
}

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	cfg        config.Config
	prefs      config.Prefs
	activePage config.Page
	// page to return to from the detail view
	detailFrom config.Page

	// session
	sess     *session.Session
	provider wallet.Provider
	changes  *changeFeed
	snap     session.Snapshot
	balance  *big.Int

	spin      spinner.Model
	busy      bool // a write operation is waiting for its receipt
	busyLabel string

	homeForm *huh.Form

	// marketplace
	market        []contracts.Invoice
	marketLoading bool
	marketQuery   helpers.MarketQuery
	search        textinput.Model
	searching     bool
	marketIdx     int

	// invoice detail
	detail        contracts.Invoice
	detailID      *big.Int
	detailFound   bool
	detailLoading bool

	// SME dashboard
	smeInvoices  []contracts.Invoice
	smeLoading   bool
	smeIdx       int
	tokenizeForm *huh.Form

	// client dashboard
	clientInvoices []contracts.Invoice
	clientLoading  bool
	clientIdx      int

	// portfolio
	owned            []contracts.Invoice
	portfolioLoading bool
	portfolioFilter  helpers.PortfolioFilter
	portfolioIdx     int

	// history
	historyIdx int
	showQR     bool

	// clipboard feedback
	copiedMsg string

	// notices from the session, oldest first
	toasts []session.Notice

	confirm *confirmDialog

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logSink     *logSink
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// -------------------- INIT --------------------

// newLogger creates the application logger writing into the log panel buffer
func newLogger(sink *logSink, level log.Level) *log.Logger {
	logger := log.NewWithOptions(sink, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(styles.CError).SetString("ERROR"),
		},
	})
	return logger
}

// newModel wires the session to the wallet provider. A nil provider means no
// wallet is configured; connecting then reports it.
func newModel(cfg config.Config, prefs config.Prefs, sink *logSink, logger *log.Logger, provider wallet.Provider) model {
	sess := session.New(cfg, provider, session.WithLogger(logger))

	changes := newChangeFeed(changeFeedSize, logger)
	sess.Subscribe(changes.push)

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	in := textinput.New()
	in.Placeholder = "id, client or SME address"
	in.Prompt = "Search: "
	in.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	in.CharLimit = 42
	in.Width = 44

	vp := viewport.New(0, 20) // resized on the first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	page := prefs.LastPage
	if page == config.PageDetail {
		page = config.PageMarketplace
	}

	m := model{
		cfg:         cfg,
		prefs:       prefs,
		activePage:  page,
		sess:        sess,
		provider:    provider,
		changes:     changes,
		snap:        sess.Snapshot(),
		spin:        sp,
		search:      in,
		logEnabled:  prefs.Logger,
		logger:      logger,
		logSink:     sink,
		logViewport: vp,
		logSpinner:  logSpin,
	}
	if m.activePage == config.PageHome {
		m.homeForm = m.createHomeForm()
	}
	return m
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForChange(m.changes)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	// a configured wallet connects right away, like an already authorized extension
	if m.provider != nil {
		cmds = append(cmds, connectWallet(m.sess))
	}
	return tea.Batch(cmds...)
}

// savePrefs persists the logger toggle and current page
func (m *model) savePrefs() {
	m.prefs.Logger = m.logEnabled
	m.prefs.LastPage = m.activePage
	config.SavePrefs(m.cfg.PrefsPath, m.prefs)
}

// now is the clock views compute maturity against
func (m model) now() time.Time {
	return time.Now()
}

// account is the connected address, or "" if none
func (m model) account() string {
	if !m.snap.HasAccount {
		return ""
	}
	return m.snap.Account.Hex()
}

func (m model) ready() bool {
	return m.snap.State == session.ConnectedReady
}

func (m model) symbol() string {
	return m.cfg.Network.Currency.Symbol
}
