// Package report builds the daily capture summary sent to the chat.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/chartsnap/chartsnap/internal/store"
)

// Report is a compiled summary ready for sending
type Report struct {
	Text      string
	CreatedAt time.Time
}

// Build renders per-target capture counts into a plain-text message.
// Telegram renders plain text fine; no markup needed.
func Build(stats []store.TargetStats, since time.Time) (*Report, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no captures since %s", since.Format("Jan 2 15:04"))
	}

	now := time.Now()
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("chartsnap report - %s\n", now.Format("Monday, January 2")))
	buf.WriteString(fmt.Sprintf("since %s\n\n", since.Format("Jan 2 15:04")))

	totalCaptured, totalSent, totalFailed := 0, 0, 0
	for _, st := range stats {
		line := fmt.Sprintf("%s: %d captured, %d sent", st.Target, st.Captured, st.Sent)
		if st.Failed > 0 {
			line += fmt.Sprintf(", %d failed", st.Failed)
		}
		buf.WriteString(line + "\n")

		totalCaptured += st.Captured
		totalSent += st.Sent
		totalFailed += st.Failed
	}

	buf.WriteString(fmt.Sprintf("\ntotal: %d captured, %d sent, %d failed",
		totalCaptured, totalSent, totalFailed))

	return &Report{Text: buf.String(), CreatedAt: now}, nil
}
