package meter

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var ErrBridgeUnavailable = errors.New("sound meter bridge is not available: native module not linked")

// Bridge is the native microphone collaborator. Probe returns a diagnostic
// message when the bridge answers.
type Bridge interface {
	Probe(ctx context.Context) (string, error)
}

// Unlinked is the bridge used when no native module is present.
type Unlinked struct{}

func (Unlinked) Probe(context.Context) (string, error) { return "", ErrBridgeUnavailable }

// Static answers every probe with a fixed message.
type Static struct {
	Message string
}

func (s Static) Probe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Message, nil
}

// NewBridge picks a bridge by configured name. Unknown names get Unlinked.
func NewBridge(name string) Bridge {
	if name == "static" {
		return Static{Message: "Microphone bridge is working!"}
	}
	return Unlinked{}
}

// LogProbe probes the bridge and reports the outcome to the log only.
func LogProbe(ctx context.Context, b Bridge, log zerolog.Logger) bool {
	msg, err := b.Probe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sound meter bridge probe failed")
		return false
	}
	log.Info().Str("message", msg).Msg("sound meter bridge ok")
	return true
}
