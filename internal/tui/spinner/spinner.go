package spinner

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// New returns a spinner on stderr, or a no-op one when disable is set so
// that debug logs are not interleaved with the animation.
func New(disable bool) Spinner {
	if disable {
		return &stubSpinner{}
	}

	return &spinnerImpl{
		Spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr)),
	}
}

type Spinner interface {
	Start()
	Stop()
	WithIndicator(string) Spinner
	WithDone(string) Spinner
}

type stubSpinner struct{}

func (s *stubSpinner) Start() {}
func (s *stubSpinner) Stop()  {}
func (s *stubSpinner) WithIndicator(string) Spinner {
	return s
}
func (s *stubSpinner) WithDone(string) Spinner {
	return s
}

type spinnerImpl struct {
	*spinner.Spinner
}

func (s *spinnerImpl) WithIndicator(indicator string) Spinner {
	s.Spinner.Suffix = fmt.Sprintf(" %s", indicator)
	return s
}

func (s *spinnerImpl) WithDone(done string) Spinner {
	s.Spinner.FinalMSG = done
	return s
}
