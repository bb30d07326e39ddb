// Package gateway is the client's single point of contact with the land
// registry ledger. It binds to an authenticated session, converts amounts
// between display units and ledger subunits at the boundary, and maps the
// ledger's tagged replies onto Go errors. It caches nothing: every result is
// the ledger's answer to that call.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/events"
	"github.com/alfredjeanlab/landreg/internal/metrics"
	"github.com/alfredjeanlab/landreg/internal/model"
)

// Session pairs a transport handle with the principal it authenticates as.
// It is immutable once built.
type Session struct {
	conn      canister.Conn
	actor     *canister.Actor
	principal model.Principal
}

// NewSession builds a session. Both the connection and the principal are
// required.
func NewSession(conn canister.Conn, principal model.Principal) (*Session, error) {
	if conn == nil {
		return nil, errors.New("session requires a connection")
	}
	if principal.IsZero() {
		return nil, errors.New("session requires a principal")
	}
	return &Session{conn: conn, actor: canister.NewActor(conn), principal: principal}, nil
}

// Principal returns the identity the session calls as.
func (s *Session) Principal() model.Principal { return s.principal }

// Close closes the underlying connection.
func (s *Session) Close() error { return s.conn.Close() }

// Gateway forwards operations to the ledger through the currently bound
// session. It is safe for concurrent use; the binding may be replaced while
// calls are in flight, and each call uses the binding it observed on entry.
type Gateway struct {
	binding   atomic.Pointer[Session]
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *metrics.Gateway
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithPublisher publishes a change event after every successful mutation.
func WithPublisher(p events.Publisher) Option {
	return func(g *Gateway) { g.publisher = p }
}

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.Gateway) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New returns an unbound gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		logger:    slog.Default(),
		publisher: &events.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bind replaces the current binding. Bind(nil) unbinds. The previous session
// is not closed; its owner closes it.
func (g *Gateway) Bind(s *Session) {
	g.binding.Store(s)
	if s == nil {
		g.logger.Debug("gateway unbound")
		return
	}
	g.logger.Debug("gateway bound", "principal", s.principal.String())
}

// IsBound reports whether a session is bound.
func (g *Gateway) IsBound() bool {
	return g.binding.Load() != nil
}

// Principal returns the bound session's principal.
func (g *Gateway) Principal() (model.Principal, bool) {
	s := g.binding.Load()
	if s == nil {
		return model.Principal{}, false
	}
	return s.principal, true
}

// invoke runs fn against the binding observed on entry and records the
// outcome. fn never runs when the gateway is unbound.
func (g *Gateway) invoke(ctx context.Context, op string, fn func(ctx context.Context, s *Session) error) (*Session, error) {
	s := g.binding.Load()
	if s == nil {
		g.metrics.Observe(op, metrics.OutcomeNotBound, 0)
		return nil, &NotBoundError{Operation: op}
	}

	start := time.Now()
	err := fn(ctx, s)
	elapsed := time.Since(start)

	var rej *RemoteRejection
	switch {
	case err == nil:
		g.metrics.Observe(op, metrics.OutcomeOK, elapsed)
		g.logger.Debug("ledger call completed", "op", op, "principal", s.principal.String(), "duration", elapsed)
	case errors.Is(err, model.ErrInvalidAmount):
		g.metrics.Observe(op, metrics.OutcomeInvalid, elapsed)
	case errors.As(err, &rej):
		g.metrics.Observe(op, metrics.OutcomeRejected, elapsed)
		g.logger.Info("ledger rejected call", "op", op, "principal", s.principal.String(), "reason", rej.Message)
	default:
		g.metrics.Observe(op, metrics.OutcomeTransportError, elapsed)
		g.logger.Warn("ledger call failed", "op", op, "principal", s.principal.String(), "duration", elapsed, "error", err)
	}
	return s, err
}

// publish emits an event. Failures are logged and never returned.
func (g *Gateway) publish(ctx context.Context, topic string, event any) {
	if err := g.publisher.Publish(ctx, topic, event); err != nil {
		g.logger.Warn("publishing event", "topic", topic, "error", err)
	}
}

func (g *Gateway) publishLand(ctx context.Context, topic string, s *Session, l *model.Land) {
	g.publish(ctx, topic, events.LandChanged{Land: l, Actor: s.principal, At: time.Now().UTC()})
}

// unwrap maps a tagged reply to its payload or a *RemoteRejection.
func unwrap[T any](op string, r canister.Result[T]) (T, error) {
	var zero T
	switch r.Tag() {
	case canister.TagOk:
		return r.Payload(), nil
	case canister.TagErr:
		return zero, &RemoteRejection{Operation: op, Message: r.Message()}
	default:
		return zero, fmt.Errorf("%s: %w", op, canister.ErrMalformedResult)
	}
}

// mutateLand runs a land mutation and converts its reply.
func (g *Gateway) mutateLand(ctx context.Context, op string, call func(ctx context.Context, a *canister.Actor) (canister.LandResult, error)) (*model.Land, *Session, error) {
	var land *model.Land
	s, err := g.invoke(ctx, op, func(ctx context.Context, s *Session) error {
		r, err := call(ctx, s.actor)
		if err != nil {
			return err
		}
		p, err := unwrap(op, r)
		if err != nil {
			return err
		}
		land = parcelToModel(&p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return land, s, nil
}

func (g *Gateway) queryLands(ctx context.Context, op string, call func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error)) ([]*model.Land, error) {
	var lands []*model.Land
	_, err := g.invoke(ctx, op, func(ctx context.Context, s *Session) error {
		ps, err := call(ctx, s.actor)
		if err != nil {
			return err
		}
		lands = parcelsToModel(ps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lands, nil
}

// --- Registration ---

// RegisterLand submits a new parcel. The ledger assigns the id, owner and
// initial Pending status.
func (g *Gateway) RegisterLand(ctx context.Context, in model.LandInput) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodRegisterLand, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		w, err := inputToWire(in)
		if err != nil {
			return canister.LandResult{}, err
		}
		return a.RegisterLand(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandRegistered, s, land)
	return land, nil
}

// --- Queries ---

// GetLandDetails returns one parcel, or ErrLandNotFound.
func (g *Gateway) GetLandDetails(ctx context.Context, id uint64) (*model.Land, error) {
	var land *model.Land
	_, err := g.invoke(ctx, canister.MethodGetLandDetails, func(ctx context.Context, s *Session) error {
		p, err := s.actor.GetLandDetails(ctx, id)
		if err != nil {
			return err
		}
		land = parcelToModel(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if land == nil {
		return nil, fmt.Errorf("land %d: %w", id, ErrLandNotFound)
	}
	return land, nil
}

// GetUserLands returns every parcel owned by owner.
func (g *Gateway) GetUserLands(ctx context.Context, owner model.Principal) ([]*model.Land, error) {
	return g.queryLands(ctx, canister.MethodGetUserLands, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.GetUserLands(ctx, owner)
	})
}

// GetLandsForSale returns every listed parcel.
func (g *Gateway) GetLandsForSale(ctx context.Context) ([]*model.Land, error) {
	return g.queryLands(ctx, canister.MethodGetLandsForSale, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.GetLandsForSale(ctx)
	})
}

// GetAllLands returns every registered parcel.
func (g *Gateway) GetAllLands(ctx context.Context) ([]*model.Land, error) {
	return g.queryLands(ctx, canister.MethodGetAllLands, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.GetAllLands(ctx)
	})
}

// GetPendingVerificationLands returns parcels awaiting a verifier.
func (g *Gateway) GetPendingVerificationLands(ctx context.Context) ([]*model.Land, error) {
	return g.queryLands(ctx, canister.MethodGetPendingVerificationLands, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.GetPendingVerificationLands(ctx)
	})
}

// GetLandsByStatus returns parcels in the given status.
func (g *Gateway) GetLandsByStatus(ctx context.Context, status model.LandStatus) ([]*model.Land, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown land status %q", status)
	}
	return g.queryLands(ctx, canister.MethodGetLandsByStatus, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.GetLandsByStatus(ctx, status)
	})
}

// SearchLands returns parcels whose description or coordinates match query.
func (g *Gateway) SearchLands(ctx context.Context, query string) ([]*model.Land, error) {
	return g.queryLands(ctx, canister.MethodSearchLands, func(ctx context.Context, a *canister.Actor) ([]canister.LandParcel, error) {
		return a.SearchLands(ctx, query)
	})
}

// GetLandHistory returns a parcel's ownership history, or ErrLandNotFound.
func (g *Gateway) GetLandHistory(ctx context.Context, id uint64) ([]model.Transfer, error) {
	var (
		history []model.Transfer
		found   bool
	)
	_, err := g.invoke(ctx, canister.MethodGetLandHistory, func(ctx context.Context, s *Session) error {
		ts, ok, err := s.actor.GetLandHistory(ctx, id)
		if err != nil {
			return err
		}
		found = ok
		history = transfersToModel(ts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("land %d: %w", id, ErrLandNotFound)
	}
	return history, nil
}

// GetTotalLands returns the number of registered parcels.
func (g *Gateway) GetTotalLands(ctx context.Context) (uint64, error) {
	var n uint64
	_, err := g.invoke(ctx, canister.MethodGetTotalLands, func(ctx context.Context, s *Session) error {
		var err error
		n, err = s.actor.GetTotalLands(ctx)
		return err
	})
	return n, err
}

// --- Verification ---

// VerifyLand approves a pending parcel. Only verifiers may call it.
func (g *Gateway) VerifyLand(ctx context.Context, id uint64) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodVerifyLand, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		return a.VerifyLand(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandVerified, s, land)
	return land, nil
}

// RejectLandVerification rejects a pending parcel. Only verifiers may call it.
func (g *Gateway) RejectLandVerification(ctx context.Context, id uint64) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodRejectLandVerification, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		return a.RejectLandVerification(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandRejected, s, land)
	return land, nil
}

// AddVerifier grants verifier rights to p and returns the ledger's
// confirmation text.
func (g *Gateway) AddVerifier(ctx context.Context, p model.Principal) (string, error) {
	return g.verifierAdmin(ctx, canister.MethodAddVerifier, p, (*canister.Actor).AddVerifier)
}

// RemoveVerifier revokes verifier rights from p.
func (g *Gateway) RemoveVerifier(ctx context.Context, p model.Principal) (string, error) {
	return g.verifierAdmin(ctx, canister.MethodRemoveVerifier, p, (*canister.Actor).RemoveVerifier)
}

func (g *Gateway) verifierAdmin(ctx context.Context, op string, p model.Principal, call func(*canister.Actor, context.Context, model.Principal) (canister.TextResult, error)) (string, error) {
	var msg string
	_, err := g.invoke(ctx, op, func(ctx context.Context, s *Session) error {
		r, err := call(s.actor, ctx, p)
		if err != nil {
			return err
		}
		msg, err = unwrap(op, r)
		return err
	})
	return msg, err
}

// IsUserVerifier reports whether p holds verifier rights.
func (g *Gateway) IsUserVerifier(ctx context.Context, p model.Principal) (bool, error) {
	var ok bool
	_, err := g.invoke(ctx, canister.MethodIsUserVerifier, func(ctx context.Context, s *Session) error {
		var err error
		ok, err = s.actor.IsUserVerifier(ctx, p)
		return err
	})
	return ok, err
}

// --- Marketplace ---

// SetLandForSale lists a parcel at price (display units).
func (g *Gateway) SetLandForSale(ctx context.Context, id uint64, price float64) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodSetLandForSale, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		sub, err := model.ToSubunits(price)
		if err != nil {
			return canister.LandResult{}, err
		}
		return a.SetLandForSale(ctx, id, sub)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandListed, s, land)
	return land, nil
}

// BuyLand purchases a listed parcel with the caller's wallet balance.
func (g *Gateway) BuyLand(ctx context.Context, id uint64) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodBuyLand, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		return a.BuyLand(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandBought, s, land)
	return land, nil
}

// RemoveLandFromSale withdraws a listing.
func (g *Gateway) RemoveLandFromSale(ctx context.Context, id uint64) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodRemoveLandFromSale, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		return a.RemoveLandFromSale(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	g.publishLand(ctx, events.TopicLandUnlisted, s, land)
	return land, nil
}

// TransferOwnership gives a parcel to newOwner without payment.
func (g *Gateway) TransferOwnership(ctx context.Context, id uint64, newOwner model.Principal) (*model.Land, error) {
	land, s, err := g.mutateLand(ctx, canister.MethodTransferOwnership, func(ctx context.Context, a *canister.Actor) (canister.LandResult, error) {
		return a.TransferOwnership(ctx, id, newOwner)
	})
	if err != nil {
		return nil, err
	}
	g.publish(ctx, events.TopicLandTransferred, events.LandTransferred{
		LandChanged: events.LandChanged{Land: land, Actor: s.principal, At: time.Now().UTC()},
		From:        s.principal,
	})
	return land, nil
}

// --- Wallet ---

// GetWalletBalance returns p's balance in display units.
func (g *Gateway) GetWalletBalance(ctx context.Context, p model.Principal) (float64, error) {
	var balance float64
	_, err := g.invoke(ctx, canister.MethodGetWalletBalance, func(ctx context.Context, s *Session) error {
		sub, err := s.actor.GetWalletBalance(ctx, p)
		if err != nil {
			return err
		}
		balance = model.ToDisplay(sub)
		return nil
	})
	return balance, err
}

// AddFundsToWallet credits the caller's wallet and returns the new balance
// in display units.
func (g *Gateway) AddFundsToWallet(ctx context.Context, amount float64) (float64, error) {
	var balance float64
	s, err := g.invoke(ctx, canister.MethodAddFundsToWallet, func(ctx context.Context, s *Session) error {
		sub, err := model.ToSubunits(amount)
		if err != nil {
			return err
		}
		r, err := s.actor.AddFundsToWallet(ctx, sub)
		if err != nil {
			return err
		}
		n, err := unwrap(canister.MethodAddFundsToWallet, r)
		if err != nil {
			return err
		}
		balance = model.ToDisplay(uint64(n))
		return nil
	})
	if err != nil {
		return 0, err
	}
	g.publish(ctx, events.TopicWalletFunded, events.WalletChanged{
		Principal: s.principal, Amount: amount, Balance: balance, At: time.Now().UTC(),
	})
	return balance, nil
}

// InitializeUserWallet creates the caller's wallet if it does not exist and
// returns its balance in display units.
func (g *Gateway) InitializeUserWallet(ctx context.Context) (float64, error) {
	var balance float64
	s, err := g.invoke(ctx, canister.MethodInitializeUserWallet, func(ctx context.Context, s *Session) error {
		r, err := s.actor.InitializeUserWallet(ctx)
		if err != nil {
			return err
		}
		n, err := unwrap(canister.MethodInitializeUserWallet, r)
		if err != nil {
			return err
		}
		balance = model.ToDisplay(uint64(n))
		return nil
	})
	if err != nil {
		return 0, err
	}
	g.publish(ctx, events.TopicWalletInitialized, events.WalletChanged{
		Principal: s.principal, Balance: balance, At: time.Now().UTC(),
	})
	return balance, nil
}
