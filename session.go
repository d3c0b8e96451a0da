package cfdsdk

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cfd-protocol/go-sdk/types"
)

const (
	start = iota
	paramsReceived
	signaturesReceived
	setupFinalization
)

// SetupEventChannel carries the messages received from the counterparty
// during contract setup or rollover, or a transport error.
type SetupEventChannel struct {
	Event any
	Err   error
}

// ParamsReceivedEvent is the counterparty's opening message: its side of
// the contract parameters and the punish keys of the new version.
type ParamsReceivedEvent struct {
	Party  types.PartyParams
	Punish types.PunishParams
}

// SignaturesReceivedEvent carries the counterparty's signatures over the
// transaction graph.
type SignaturesReceivedEvent struct {
	Signatures SignatureSet
}

// RevocationReceivedEvent carries the revocation secret of the previous
// contract version. Only sent during a rollover, after both sides hold a
// fully signed new version.
type RevocationReceivedEvent struct {
	ContractID       string
	Version          uint32
	RevocationSecret []byte
}

type SetupFinalizedEvent struct {
	Txid string
}

type SetupFailedEvent struct {
	Reason string
}

type SetupEventHandlers interface {
	OnParamsReceived(ctx context.Context, event ParamsReceivedEvent) (bool, error)
	OnSignaturesReceived(ctx context.Context, event SignaturesReceivedEvent) error
	OnRevocationReceived(ctx context.Context, event RevocationReceivedEvent) error
	OnSetupFailed(ctx context.Context, event SetupFailedEvent) error
	OnSetupFinalized(ctx context.Context, event SetupFinalizedEvent) error
}

type sessionOptions struct {
	expectRevocation bool            // default: false, true on rollover
	replayEventsCh   chan<- any      // default: nil
	cancelCh         <-chan struct{} // default: nil
}

func newSessionOptions() *sessionOptions {
	return &sessionOptions{
		expectRevocation: false,
		replayEventsCh:   nil,
		cancelCh:         nil,
	}
}

type SetupSessionOption func(*sessionOptions)

// WithRevocation makes the session wait for the counterparty's revocation
// secret before finalizing, as required on rollover.
func WithRevocation() SetupSessionOption {
	return func(o *sessionOptions) {
		o.expectRevocation = true
	}
}

func WithReplay(ch chan<- any) SetupSessionOption {
	return func(o *sessionOptions) {
		o.replayEventsCh = ch
	}
}

func WithCancel(cancelCh <-chan struct{}) SetupSessionOption {
	return func(o *sessionOptions) {
		o.cancelCh = cancelCh
	}
}

// HandleSetupEvents drives one side of the setup handshake: it enforces
// the message order, delegates the domain checks to the handlers and
// returns the lock txid once the session is finalized.
func HandleSetupEvents(
	ctx context.Context,
	eventsCh <-chan SetupEventChannel,
	handlers SetupEventHandlers,
	opts ...SetupSessionOption,
) (string, error) {
	options := newSessionOptions()

	for _, opt := range opts {
		opt(options)
	}

	step := start
	revocationDone := !options.expectRevocation

	for {
		select {
		case <-options.cancelCh:
			return "", fmt.Errorf("canceled")
		case <-ctx.Done():
			return "", fmt.Errorf("context done %s", ctx.Err())
		case notify := <-eventsCh:
			if notify.Err != nil {
				return "", notify.Err
			}

			if options.replayEventsCh != nil {
				go func() {
					options.replayEventsCh <- notify.Event
				}()
			}

			switch event := notify.Event.(type) {
			case ParamsReceivedEvent:
				if step != start {
					continue
				}

				skip, err := handlers.OnParamsReceived(ctx, event)
				if err != nil {
					return "", err
				}
				if !skip {
					step++
				}
				continue
			case SignaturesReceivedEvent:
				if step != paramsReceived {
					continue
				}

				if err := handlers.OnSignaturesReceived(ctx, event); err != nil {
					return "", err
				}

				step++
				if revocationDone {
					step = setupFinalization
				}
				continue
			case RevocationReceivedEvent:
				if step != signaturesReceived || revocationDone {
					continue
				}

				if err := handlers.OnRevocationReceived(ctx, event); err != nil {
					return "", err
				}

				revocationDone = true
				log.Debug("revocation secret received.")
				log.Debug("waiting for setup finalization...")
				step = setupFinalization
				continue
			// the session failed, the handler decides whether it is fatal.
			case SetupFailedEvent:
				if err := handlers.OnSetupFailed(ctx, event); err != nil {
					return "", err
				}
				continue
			case SetupFinalizedEvent:
				if step != setupFinalization {
					continue
				}

				if err := handlers.OnSetupFinalized(ctx, event); err != nil {
					return "", err
				}
				return event.Txid, nil
			}
		}
	}
}
