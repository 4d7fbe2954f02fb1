// Package sloghooks reports codec and cache events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/propwire"
	"github.com/unkn0wn-root/propwire/internal/util"
	"github.com/unkn0wn-root/propwire/islandcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	DecodeEvery   uint64 // unknown tags and malformed nodes
	// Optional key redactor. Defaults to a BLAKE3 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	decodeCtr   atomic.Uint64
}

var (
	_ propwire.Hooks    = (*Hooks)(nil)
	_ islandcache.Hooks = (*Hooks)(nil)
)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Digest(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CyclicReference(meta propwire.Metadata, path string) {
	if h.l == nil {
		return
	}
	h.l.Warn("propwire.cyclic_reference",
		"component", meta.DisplayName,
		"hydrate", meta.Hydrate,
		"path", path)
}

func (h *Hooks) UnsupportedType(meta propwire.Metadata, path, typ string) {
	if h.l == nil {
		return
	}
	h.l.Warn("propwire.unsupported_type",
		"component", meta.DisplayName,
		"path", path,
		"type", typ)
}

func (h *Hooks) UnknownTag(path string, raw any) {
	if h.l == nil || !sample(h.opts.DecodeEvery, &h.decodeCtr) {
		return
	}
	h.l.Debug("propwire.unknown_tag",
		"path", path,
		"tag", raw)
}

func (h *Hooks) MalformedNode(path string, tag propwire.Tag, reason string) {
	if h.l == nil || !sample(h.opts.DecodeEvery, &h.decodeCtr) {
		return
	}
	h.l.Debug("propwire.malformed_node",
		"path", path,
		"tag", tag.String(),
		"reason", reason)
}

func (h *Hooks) PayloadRejected(size, limit int) {
	if h.l == nil {
		return
	}
	h.l.Warn("propwire.payload_rejected",
		"size", size,
		"limit", limit)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("islandcache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("islandcache.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("islandcache.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("islandcache.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) InvalidateOutage(key string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("islandcache.invalidate_outage",
		"key", h.redact(key),
		"bump_err", bumpErr,
		"del_err", delErr)
}
