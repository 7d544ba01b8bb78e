package ddns

import (
	"context"
	"fmt"
)

type Status int

const (
	Updated Status = iota
	NoChange
	Failed
)

func (s Status) String() string {
	switch s {
	case Updated:
		return "updated"
	case NoChange:
		return "nochg"
	default:
		return "failed"
	}
}

// Outcome is the result of pushing one IP to one host.
type Outcome struct {
	Status Status
	Reason string
}

func Fail(format string, a ...any) Outcome {
	return Outcome{Status: Failed, Reason: fmt.Sprintf(format, a...)}
}

type Client interface {
	Domain() string
	Update(ctx context.Context, ipAddr string) Outcome
}
