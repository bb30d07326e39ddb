package canister

import (
	"context"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// LandResult is the tagged reply of every land mutation.
type LandResult = Result[LandParcel]

// TextResult is the tagged reply of verifier administration calls.
type TextResult = Result[string]

// BalanceResult is the tagged reply of wallet mutations.
type BalanceResult = Result[Nat64]

// Actor is a typed view of the land registry canister over a Conn. It
// mirrors the remote interface one method per remote function and performs
// no conversion or interpretation of replies.
type Actor struct {
	conn Conn
}

// NewActor wraps conn.
func NewActor(conn Conn) *Actor {
	return &Actor{conn: conn}
}

func (a *Actor) landResult(ctx context.Context, method string, args ...any) (LandResult, error) {
	var r LandResult
	err := a.conn.Call(ctx, method, args, &r)
	return r, err
}

func (a *Actor) lands(ctx context.Context, method string, args ...any) ([]LandParcel, error) {
	var out []LandParcel
	if err := a.conn.Call(ctx, method, args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Registration and queries ---

func (a *Actor) RegisterLand(ctx context.Context, in LandInput) (LandResult, error) {
	return a.landResult(ctx, MethodRegisterLand, in)
}

func (a *Actor) GetLandDetails(ctx context.Context, id uint64) (*LandParcel, error) {
	var out *LandParcel
	if err := a.conn.Call(ctx, MethodGetLandDetails, []any{Nat64(id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Actor) GetUserLands(ctx context.Context, owner model.Principal) ([]LandParcel, error) {
	return a.lands(ctx, MethodGetUserLands, owner)
}

func (a *Actor) GetAllLands(ctx context.Context) ([]LandParcel, error) {
	return a.lands(ctx, MethodGetAllLands)
}

func (a *Actor) GetLandsForSale(ctx context.Context) ([]LandParcel, error) {
	return a.lands(ctx, MethodGetLandsForSale)
}

func (a *Actor) GetPendingVerificationLands(ctx context.Context) ([]LandParcel, error) {
	return a.lands(ctx, MethodGetPendingVerificationLands)
}

func (a *Actor) GetLandsByStatus(ctx context.Context, status model.LandStatus) ([]LandParcel, error) {
	return a.lands(ctx, MethodGetLandsByStatus, Status{Tag: status})
}

func (a *Actor) SearchLands(ctx context.Context, query string) ([]LandParcel, error) {
	return a.lands(ctx, MethodSearchLands, query)
}

func (a *Actor) GetTotalLands(ctx context.Context) (uint64, error) {
	var n Nat64
	if err := a.conn.Call(ctx, MethodGetTotalLands, nil, &n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// GetLandHistory returns nil, false when the parcel does not exist.
func (a *Actor) GetLandHistory(ctx context.Context, id uint64) ([]LandTransfer, bool, error) {
	var out *[]LandTransfer
	if err := a.conn.Call(ctx, MethodGetLandHistory, []any{Nat64(id)}, &out); err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return *out, true, nil
}

// --- Verification ---

func (a *Actor) VerifyLand(ctx context.Context, id uint64) (LandResult, error) {
	return a.landResult(ctx, MethodVerifyLand, Nat64(id))
}

func (a *Actor) RejectLandVerification(ctx context.Context, id uint64) (LandResult, error) {
	return a.landResult(ctx, MethodRejectLandVerification, Nat64(id))
}

func (a *Actor) AddVerifier(ctx context.Context, p model.Principal) (TextResult, error) {
	var r TextResult
	err := a.conn.Call(ctx, MethodAddVerifier, []any{p}, &r)
	return r, err
}

func (a *Actor) RemoveVerifier(ctx context.Context, p model.Principal) (TextResult, error) {
	var r TextResult
	err := a.conn.Call(ctx, MethodRemoveVerifier, []any{p}, &r)
	return r, err
}

func (a *Actor) IsUserVerifier(ctx context.Context, p model.Principal) (bool, error) {
	var ok bool
	if err := a.conn.Call(ctx, MethodIsUserVerifier, []any{p}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// --- Marketplace ---

func (a *Actor) SetLandForSale(ctx context.Context, id uint64, priceSubunits uint64) (LandResult, error) {
	return a.landResult(ctx, MethodSetLandForSale, Nat64(id), Nat64(priceSubunits))
}

func (a *Actor) BuyLand(ctx context.Context, id uint64) (LandResult, error) {
	return a.landResult(ctx, MethodBuyLand, Nat64(id))
}

func (a *Actor) RemoveLandFromSale(ctx context.Context, id uint64) (LandResult, error) {
	return a.landResult(ctx, MethodRemoveLandFromSale, Nat64(id))
}

func (a *Actor) TransferOwnership(ctx context.Context, id uint64, newOwner model.Principal) (LandResult, error) {
	return a.landResult(ctx, MethodTransferOwnership, Nat64(id), newOwner)
}

// --- Wallet ---

func (a *Actor) GetWalletBalance(ctx context.Context, p model.Principal) (uint64, error) {
	var n Nat64
	if err := a.conn.Call(ctx, MethodGetWalletBalance, []any{p}, &n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (a *Actor) AddFundsToWallet(ctx context.Context, amountSubunits uint64) (BalanceResult, error) {
	var r BalanceResult
	err := a.conn.Call(ctx, MethodAddFundsToWallet, []any{Nat64(amountSubunits)}, &r)
	return r, err
}

func (a *Actor) InitializeUserWallet(ctx context.Context) (BalanceResult, error) {
	var r BalanceResult
	err := a.conn.Call(ctx, MethodInitializeUserWallet, nil, &r)
	return r, err
}
