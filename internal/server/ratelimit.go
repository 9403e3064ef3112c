package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds the token buckets for a single client address.
type visitor struct {
	upload   *rate.Limiter
	hourly   *rate.Limiter
	daily    *rate.Limiter
	lastSeen time.Time
}

// ipLimiter tracks per-client rate limits. Visitors idle for more than a day
// are pruned; the daily bucket needs that much memory.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	uploadPerMinute int
	perHour         int
	perDay          int
}

func newIPLimiter(uploadPerMinute, perHour, perDay int) *ipLimiter {
	if uploadPerMinute <= 0 {
		uploadPerMinute = 1
	}
	if perHour <= 0 {
		perHour = 1
	}
	if perDay <= 0 {
		perDay = 1
	}
	l := &ipLimiter{
		visitors:        make(map[string]*visitor),
		uploadPerMinute: uploadPerMinute,
		perHour:         perHour,
		perDay:          perDay,
	}
	go l.cleanupLoop()
	return l
}

func (l *ipLimiter) get(ip string) *visitor {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{
			upload: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.uploadPerMinute)), l.uploadPerMinute),
			hourly: rate.NewLimiter(rate.Limit(float64(l.perHour)/3600), l.perHour),
			daily:  rate.NewLimiter(rate.Limit(float64(l.perDay)/86400), l.perDay),
		}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v
}

// allowGlobal checks the hourly and daily caps. Both buckets are consumed
// together so a denied request still counts against the other window.
func (l *ipLimiter) allowGlobal(ip string) bool {
	v := l.get(ip)
	hourOK := v.hourly.Allow()
	dayOK := v.daily.Allow()
	return hourOK && dayOK
}

// allowUpload checks the per-minute upload cap.
func (l *ipLimiter) allowUpload(ip string) bool {
	return l.get(ip).upload.Allow()
}

func (l *ipLimiter) cleanupLoop() {
	for range time.Tick(10 * time.Minute) {
		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > 24*time.Hour {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}
