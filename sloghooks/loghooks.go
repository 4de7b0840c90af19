package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/snapmut"
)

type Options struct {
	// Sampling for the hot path to avoid floods; 0/1 = log all.
	AppliedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	appliedCtr atomic.Uint64
}

var _ snapmut.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Applied(key string, verb snapmut.Verb, delta int) {
	if h.l == nil || !sample(h.opts.AppliedEvery, &h.appliedCtr) {
		return
	}
	h.l.Debug("snapmut.applied",
		"key", h.redact(key),
		"verb", string(verb),
		"delta", delta)
}

func (h *Hooks) WriteFallback(key string, verb snapmut.Verb, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("snapmut.write_fallback",
		"key", h.redact(key),
		"verb", string(verb),
		"err", err)
}

func (h *Hooks) FallbackOutage(key string, verb snapmut.Verb, writeErr, invalidateErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("snapmut.fallback_outage",
		"key", h.redact(key),
		"verb", string(verb),
		"write_err", writeErr,
		"invalidate_err", invalidateErr)
}
