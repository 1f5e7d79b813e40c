package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jigar48949/Files-and-folder-directory/internal/app"
)

var _ app.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或退化到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：核心层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	op          string
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(op string) {
	now := time.Now()

	p.mu.Lock()
	p.op = op
	p.startedAt = now
	p.done, p.total = 0, 0

	colHead.Fprintf(p.w, "[%s] dirtool %s\n", now.Format("15:04:05"), op)

	p.lastPrinted = now
	if !p.tickerStarted {
		p.startTickerLocked()
	}
	p.mu.Unlock()
}

func (p *progressUI) OnProgress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.total = done, total
	fmt.Fprintf(p.w, "进度: %d/%d\n", done, total)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnFinish(op string, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
	colDim.Fprintf(p.w, "%s 结束 (%.1fs)\n", op, dur.Seconds())
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: %d/%d elapsed=%s\n", p.done, p.total, formatElapsed(elapsed))
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
