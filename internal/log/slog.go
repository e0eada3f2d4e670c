package log

import (
	"context"
	"log/slog"
	"strings"
)

// SlogHandler bridges log/slog into the internal logger, so a host that
// already wires up slog.Logger gets records routed through the same
// UseLogger-controlled sink instead of a second, unconfigured backend.
type SlogHandler struct {
	groups []string
	attrs  []slog.Attr
}

var _ slog.Handler = SlogHandler{}

func (h SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return toLevel(level) >= GetLevel()
}

func (h SlogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.groups, a)
		return true
	})
	log(toLevel(r.Level), "%s", b.String())
	return nil
}

func (h SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		// qualify with the groups open now, not those opened later
		if len(h.groups) > 0 && !a.Equal(slog.Attr{}) {
			a.Key = strings.Join(h.groups, ".") + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h SlogHandler) WithGroup(name string) slog.Handler {
	next := h
	next.groups = append(append([]string{}, h.groups...), name)
	return next
}

func writeAttr(b *strings.Builder, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	if len(groups) > 0 {
		b.WriteString(strings.Join(groups, "."))
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

func toLevel(l slog.Level) Level {
	switch {
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}
