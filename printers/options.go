package printers

import "github.com/tcp-ping/tcpping/option"

// options contains common display options shared by all printers
type options struct {
	ShowTimestamp     bool
	ShowSourceAddress bool
	ShowFailuresOnly  bool
}

// OptionHolder is satisfied by pointers to every printer in this package.
type OptionHolder[P any] interface {
	*P
	options() *options
}

// WithTimestamp enables timestamp display in printer output
func WithTimestamp[P any, T OptionHolder[P]]() option.Option[P] {
	return func(p *P) {
		T(p).options().ShowTimestamp = true
	}
}

// WithSourceAddress enables source address display in printer output
func WithSourceAddress[P any, T OptionHolder[P]]() option.Option[P] {
	return func(p *P) {
		T(p).options().ShowSourceAddress = true
	}
}

// WithFailuresOnly configures the printer to only show failed probes
func WithFailuresOnly[P any, T OptionHolder[P]]() option.Option[P] {
	return func(p *P) {
		T(p).options().ShowFailuresOnly = true
	}
}
