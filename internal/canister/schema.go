// Package canister describes the remote land-registry interface and provides
// the transports that carry calls to it. Values here are wire values: amounts
// are integer subunits and nothing is converted or interpreted.
package canister

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// Method names exposed by the land registry canister.
const (
	MethodRegisterLand                = "register_land"
	MethodGetLandDetails              = "get_land_details"
	MethodGetUserLands                = "get_user_lands"
	MethodGetAllLands                 = "get_all_lands"
	MethodGetLandsForSale             = "get_lands_for_sale"
	MethodGetPendingVerificationLands = "get_pending_verification_lands"
	MethodGetLandsByStatus            = "get_lands_by_status"
	MethodGetTotalLands               = "get_total_lands"
	MethodGetLandHistory              = "get_land_history"
	MethodVerifyLand                  = "verify_land"
	MethodRejectLandVerification      = "reject_land_verification"
	MethodSetLandForSale              = "set_land_for_sale"
	MethodBuyLand                     = "buy_land"
	MethodRemoveLandFromSale          = "remove_land_from_sale"
	MethodTransferOwnership           = "transfer_ownership"
	MethodAddVerifier                 = "add_verifier"
	MethodRemoveVerifier              = "remove_verifier"
	MethodIsUserVerifier              = "is_user_verifier"
	MethodSearchLands                 = "search_lands"
	MethodGetWalletBalance            = "get_wallet_balance"
	MethodAddFundsToWallet            = "add_funds_to_wallet"
	MethodInitializeUserWallet        = "initialize_user_wallet"
)

// Nat64 is an unsigned 64-bit wire integer. It is encoded as a decimal
// string so it survives transports that carry numbers as float64; bare JSON
// numbers are accepted on decode.
type Nat64 uint64

// MarshalJSON encodes n as a quoted decimal.
func (n Nat64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(n), 10) + `"`), nil
}

// UnmarshalJSON accepts a quoted decimal or a bare integer.
func (n *Nat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("decoding nat64 %s: %w", data, err)
	}
	*n = Nat64(v)
	return nil
}

// Status is the wire variant for a land status, encoded as a single-key
// object such as {"ForSale":null}.
type Status struct {
	Tag model.LandStatus
}

// MarshalJSON encodes the variant.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Tag.IsValid() {
		return nil, fmt.Errorf("encoding status: unknown tag %q", s.Tag)
	}
	return []byte(`{"` + string(s.Tag) + `":null}`), nil
}

// UnmarshalJSON decodes the variant, rejecting unknown or multiple tags.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("decoding status: want exactly one tag, got %d", len(raw))
	}
	for tag := range raw {
		st := model.LandStatus(tag)
		if !st.IsValid() {
			return fmt.Errorf("decoding status: unknown tag %q", tag)
		}
		s.Tag = st
	}
	return nil
}

// LandTransfer is one entry in a parcel's ownership history.
type LandTransfer struct {
	From       model.Principal  `json:"from"`
	To         model.Principal  `json:"to"`
	Timestamp  Nat64            `json:"timestamp"` // nanoseconds since the Unix epoch
	VerifiedBy *model.Principal `json:"verified_by"`
}

// LandParcel is the wire form of a land record.
type LandParcel struct {
	ID              Nat64            `json:"id"`
	Owner           model.Principal  `json:"owner"`
	Coordinates     string           `json:"coordinates"`
	Size            float64          `json:"size"`
	Description     string           `json:"description"`
	Status          Status           `json:"status"`
	VerifiedBy      *model.Principal `json:"verified_by"`
	CreatedAt       Nat64            `json:"created_at"`
	UpdatedAt       Nat64            `json:"updated_at"`
	History         []LandTransfer   `json:"history"`
	Price           *Nat64           `json:"price"` // subunits
	Metadata        string           `json:"metadata"`
	PreviewImageURL *string          `json:"preview_image_url"`
}

// LandInput is the wire form of a registration request.
type LandInput struct {
	Coordinates string  `json:"coordinates"`
	Size        float64 `json:"size"`
	Description string  `json:"description"`
	Metadata    string  `json:"metadata"`
	Price       *Nat64  `json:"price"` // subunits
}

// ErrMalformedResult is returned when a tagged result carries neither or both
// of its variants.
var ErrMalformedResult = errors.New("malformed result envelope")

// Tag identifies which variant a Result holds.
type Tag int

const (
	// TagInvalid is the zero value: the result was never decoded or built.
	TagInvalid Tag = iota
	TagOk
	TagErr
)

// Result is the ledger's two-variant response: exactly one of a payload or an
// error message.
type Result[T any] struct {
	tag     Tag
	payload T
	message string
}

// OkResult builds a successful result.
func OkResult[T any](v T) Result[T] {
	return Result[T]{tag: TagOk, payload: v}
}

// ErrResult builds a failed result.
func ErrResult[T any](msg string) Result[T] {
	return Result[T]{tag: TagErr, message: msg}
}

// Tag reports which variant r holds.
func (r Result[T]) Tag() Tag { return r.tag }

// Payload returns the success value. It is the zero value unless Tag is TagOk.
func (r Result[T]) Payload() T { return r.payload }

// Message returns the error message. It is empty unless Tag is TagErr.
func (r Result[T]) Message() string { return r.message }

// MarshalJSON encodes the result as {"Ok":...} or {"Err":"..."}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	switch r.tag {
	case TagOk:
		return json.Marshal(struct {
			Ok T `json:"Ok"`
		}{r.payload})
	case TagErr:
		return json.Marshal(struct {
			Err string `json:"Err"`
		}{r.message})
	default:
		return nil, ErrMalformedResult
	}
}

// UnmarshalJSON decodes a result, requiring exactly one of Ok or Err.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	okData, hasOk := raw["Ok"]
	errData, hasErr := raw["Err"]
	if len(raw) != 1 || hasOk == hasErr {
		return fmt.Errorf("%w: want exactly one of Ok or Err in %s", ErrMalformedResult, data)
	}

	var out Result[T]
	if hasOk {
		if err := json.Unmarshal(okData, &out.payload); err != nil {
			return fmt.Errorf("decoding Ok payload: %w", err)
		}
		out.tag = TagOk
	} else {
		if err := json.Unmarshal(errData, &out.message); err != nil {
			return fmt.Errorf("decoding Err message: %w", err)
		}
		out.tag = TagErr
	}
	*r = out
	return nil
}
