package canister

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"

	"github.com/alfredjeanlab/landreg/internal/idgen"
)

// Conn is a transport handle to one canister. Implementations sign and send
// a call, then decode the reply into reply. Errors returned by Call are
// transport failures: the call could not complete.
type Conn interface {
	Call(ctx context.Context, method string, args []any, reply any) error
	Close() error
}

// Signer produces the credential headers attached to an outbound call.
// body is the encoded argument list exactly as sent.
type Signer interface {
	Sign(ctx context.Context, method string, body []byte) (map[string]string, error)
}

// Header names set on every call. Lowercase so they are valid gRPC metadata
// keys as well as HTTP headers.
const (
	HeaderRequestID  = "x-request-id"
	HeaderCanisterID = "x-canister-id"
	HeaderKeyID      = "x-landreg-key"
	HeaderTimestamp  = "x-landreg-timestamp"
	HeaderNonce      = "x-landreg-nonce"
	HeaderSignature  = "x-landreg-signature"
)

// BearerToken signs calls with a static "Authorization: Bearer" credential.
type BearerToken string

// Sign implements Signer.
func (t BearerToken) Sign(_ context.Context, _ string, _ []byte) (map[string]string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return nil, errors.New("bearer token is empty")
	}
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

// HMACSigner signs each call with an HMAC-SHA256 over the method, a
// timestamp, a nonce and the body digest.
type HMACSigner struct {
	KeyID  string
	Secret string
	Now    func() time.Time
}

// Sign implements Signer.
func (s HMACSigner) Sign(_ context.Context, method string, body []byte) (map[string]string, error) {
	if strings.TrimSpace(s.KeyID) == "" || strings.TrimSpace(s.Secret) == "" {
		return nil, errors.New("hmac signer requires a key id and secret")
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	ts := strconv.FormatInt(now.Unix(), 10)
	nonce, err := idgen.Nonce()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderKeyID:     s.KeyID,
		HeaderTimestamp: ts,
		HeaderNonce:     nonce,
		HeaderSignature: SignatureFor(s.Secret, method, ts, nonce, body),
	}, nil
}

// SignatureFor computes the HMACSigner signature. Exported so the receiving
// side (and tests) can recompute it.
func SignatureFor(secret, method, timestamp, nonce string, body []byte) string {
	digest := sha256.Sum256(body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + "\n" + timestamp + "\n" + nonce + "\n" + hex.EncodeToString(digest[:])))
	return hex.EncodeToString(mac.Sum(nil))
}

// ConnOption configures a Conn.
type ConnOption func(*connOptions)

type connOptions struct {
	signer      Signer
	logger      *slog.Logger
	httpClient  *http.Client
	dialOptions []grpc.DialOption
}

// WithSigner attaches credentials to every call.
func WithSigner(s Signer) ConnOption {
	return func(o *connOptions) { o.signer = s }
}

// WithLogger sets the logger used for per-call logging.
func WithLogger(l *slog.Logger) ConnOption {
	return func(o *connOptions) { o.logger = l }
}

// WithHTTPClient overrides the HTTP client (HTTP transport only). Timeouts
// configured on the client apply to every call.
func WithHTTPClient(c *http.Client) ConnOption {
	return func(o *connOptions) { o.httpClient = c }
}

// WithDialOptions appends gRPC dial options (gRPC transport only).
func WithDialOptions(opts ...grpc.DialOption) ConnOption {
	return func(o *connOptions) { o.dialOptions = append(o.dialOptions, opts...) }
}

func buildOptions(opts []ConnOption) connOptions {
	o := connOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// callHeaders returns the request id, canister id and signer headers for one call.
func callHeaders(ctx context.Context, signer Signer, canisterID, method string, body []byte) (map[string]string, error) {
	reqID, err := idgen.RequestID()
	if err != nil {
		return nil, err
	}
	headers := map[string]string{
		HeaderRequestID:  reqID,
		HeaderCanisterID: canisterID,
	}
	if signer != nil {
		signed, err := signer.Sign(ctx, method, body)
		if err != nil {
			return nil, err
		}
		for k, v := range signed {
			headers[strings.ToLower(k)] = v
		}
	}
	return headers, nil
}
