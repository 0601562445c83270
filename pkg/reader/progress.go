package reader

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/data"
)

// ProgressWriteTimeout bounds a single progress write.
const ProgressWriteTimeout = 5 * time.Second

// ProgressRecorder persists reading progress. Writes for the same
// (user, manga, chapter) replace each other.
type ProgressRecorder interface {
	RecordProgress(ctx context.Context, record data.ReadingProgress) error
}

// AuthContext tells whether there is a user to record progress for.
type AuthContext interface {
	IsAuthenticated() bool
}

// ProgressRecordedMsg is the outcome of one progress write.
type ProgressRecordedMsg struct {
	Session uint64
	Seq     uint64
	Page    int
	Err     error
}

// ProgressSync issues a progress write for every page change while the
// user is authenticated and auto progress is on. Writes are fire and
// forget; each carries a sequence number so that a response overtaken by a
// newer write is not applied.
type ProgressSync struct {
	session  uint64
	recorder ProgressRecorder
	auth     AuthContext
	enabled  bool
	timeout  time.Duration

	seq        uint64
	ackedSeq   uint64
	syncedPage int
}

func NewProgressSync(session uint64, recorder ProgressRecorder, auth AuthContext, enabled bool) *ProgressSync {
	return &ProgressSync{
		session:  session,
		recorder: recorder,
		auth:     auth,
		enabled:  enabled,
		timeout:  ProgressWriteTimeout,
	}
}

func (p *ProgressSync) SetEnabled(enabled bool) { p.enabled = enabled }

func (p *ProgressSync) Enabled() bool { return p.enabled }

// Active reports whether a page change would currently be recorded.
func (p *ProgressSync) Active() bool {
	return p.enabled && p.recorder != nil && p.auth != nil && p.auth.IsAuthenticated()
}

// PageChanged returns the write command for the new page, or nil when
// syncing is inactive.
func (p *ProgressSync) PageChanged(mangaID, chapterID string, page, total int) tea.Cmd {
	if !p.Active() || page < 1 {
		return nil
	}
	p.seq++
	seq, session, timeout, recorder := p.seq, p.session, p.timeout, p.recorder
	record := data.NewReadingProgress(mangaID, chapterID, page, total)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := recorder.RecordProgress(ctx, record)
		return ProgressRecordedMsg{Session: session, Seq: seq, Page: page, Err: err}
	}
}

// Resolve applies a write outcome. It returns applied=false for responses
// older than one already applied. A failure is always returned so that it
// can be reported once.
func (p *ProgressSync) Resolve(msg ProgressRecordedMsg) (applied bool, err error) {
	if msg.Err != nil {
		return false, msg.Err
	}
	if msg.Seq <= p.ackedSeq {
		return false, nil
	}
	p.ackedSeq = msg.Seq
	p.syncedPage = msg.Page
	return true, nil
}

// SyncedPage is the page of the newest acknowledged write.
func (p *ProgressSync) SyncedPage() int { return p.syncedPage }
