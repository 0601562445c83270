package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangaread/pkg/app/styles"
)

// Job is the state of one background chapter job (an EPUB export).
type Job struct {
	ChapterID string
	Label     string
	Status    string // exporting, complete, error
	Done      int
	Total     int
	Path      string
	Err       error
}

// ProgressTracker lists running and failed jobs. Finished jobs are kept
// until the next Update so their result can be shown once.
type ProgressTracker struct {
	jobs  map[string]*Job
	order []string
	width int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		jobs:  make(map[string]*Job),
		width: width,
	}
}

func (p *ProgressTracker) SetWidth(width int) { p.width = width }

func (p *ProgressTracker) Update(job Job) {
	var done []string
	for _, id := range p.order {
		if p.jobs[id].Status == "complete" && id != job.ChapterID {
			done = append(done, id)
		}
	}
	for _, id := range done {
		p.remove(id)
	}
	if _, ok := p.jobs[job.ChapterID]; !ok {
		p.order = append(p.order, job.ChapterID)
	}
	j := job
	p.jobs[job.ChapterID] = &j
}

func (p *ProgressTracker) remove(id string) {
	delete(p.jobs, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

func (p *ProgressTracker) Clear() {
	p.jobs = make(map[string]*Job)
	p.order = nil
}

// Running reports whether a job for chapterID is still in flight.
func (p *ProgressTracker) Running(chapterID string) bool {
	j, ok := p.jobs[chapterID]
	return ok && j.Status == "exporting"
}

func (p *ProgressTracker) HasActive() bool {
	for _, j := range p.jobs {
		if j.Status == "exporting" {
			return true
		}
	}
	return false
}

func (p *ProgressTracker) View() string {
	if len(p.jobs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Exports"))
	b.WriteString("\n")

	for _, id := range p.order {
		job := p.jobs[id]
		line := fmt.Sprintf("%s: %s", job.Label, job.Status)
		if job.Total > 0 {
			line = fmt.Sprintf("%s (%d/%d pages)", line, job.Done, job.Total)
		}
		b.WriteString(styles.StatusStyle(job.Status).Render(line))
		b.WriteString("\n")

		if job.Status == "exporting" && job.Total > 0 {
			b.WriteString(renderProgressBar(job.Done, job.Total, p.width-4))
			b.WriteString("\n")
		}
		switch {
		case job.Err != nil:
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", job.Err)))
			b.WriteString("\n")
		case job.Path != "":
			b.WriteString(styles.MutedStyle.Render(job.Path))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// SimpleProgress renders a bare progress bar.
func SimpleProgress(current, total, width int) string {
	return renderProgressBar(current, total, width)
}
