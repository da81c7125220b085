package services

import (
	"log/slog"
	"time"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

const defaultTTL = 3600

// DefaultSecRecordTypes and DefaultSeoRecordTypes are used when Options leaves them empty.
var (
	DefaultSecRecordTypes = []domain.RecordType{domain.TypeA, domain.TypeAAAA, domain.TypeCNAME}
	DefaultSeoRecordTypes = []domain.RecordType{domain.TypeA, domain.TypeAAAA, domain.TypeCNAME}
)

// Options configures the core services. The zero value is usable.
type Options struct {
	SecRecordTypes []domain.RecordType
	SeoRecordTypes []domain.RecordType
	DefaultTTL     int
	Logger         *slog.Logger
	Notifier       ports.ChangeNotifier
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if len(o.SecRecordTypes) == 0 {
		o.SecRecordTypes = DefaultSecRecordTypes
	}
	if len(o.SeoRecordTypes) == 0 {
		o.SeoRecordTypes = DefaultSeoRecordTypes
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = defaultTTL
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
