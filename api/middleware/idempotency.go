package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	pkgredis "github.com/velvetsouk/velvetsouk-backend/pkg/redis"
)

const (
	cartReplayTTL  = 24 * time.Hour
	moneyReplayTTL = 7 * 24 * time.Hour
)

// replayRule selects routes whose responses are cached for replay. A rule
// matches either an exact chi route pattern or a prefix/suffix pair for
// parameterized routes.
type replayRule struct {
	method string
	exact  string
	prefix string
	suffix string
	ttl    time.Duration
}

func (r replayRule) matches(method, pattern string) bool {
	if r.method != method {
		return false
	}
	if r.exact != "" {
		return pattern == r.exact
	}
	return strings.HasPrefix(pattern, r.prefix) && strings.HasSuffix(pattern, r.suffix)
}

// Checkout and the money-moving order operations carry the long TTL; cart
// mutations replay cheaply and get the short one.
var replayRules = []replayRule{
	{method: http.MethodPost, exact: "/api/v1/cart/items", ttl: cartReplayTTL},
	{method: http.MethodPost, exact: "/api/v1/cart/coupon", ttl: cartReplayTTL},
	{method: http.MethodPost, exact: "/api/v1/orders", ttl: moneyReplayTTL},
	{method: http.MethodPut, prefix: "/api/v1/orders/", suffix: "/cancel", ttl: moneyReplayTTL},
	{method: http.MethodPost, prefix: "/api/v1/admin/orders/", suffix: "/refund", ttl: moneyReplayTTL},
}

func replayTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	for _, rule := range replayRules {
		if rule.matches(method, pattern) {
			return rule.ttl, true
		}
	}
	return 0, false
}

// cachedResponse is the Redis value: enough of the original response to
// replay it byte for byte, plus the request hash that guards key reuse.
type cachedResponse struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays the stored response when the same key and body arrive
// again, and rejects key reuse with a different body.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := replayTTL(r.Method, chiPattern(r))
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// Keys are scoped per user, method and path so a client key
			// cannot collide across users or endpoints.
			scope := strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
			storeKey := store.IdempotencyKey(scope, clientKey)
			bodyHash := hashRequestBody(body)

			stored, getErr := store.Get(r.Context(), storeKey)
			if getErr != nil && !pkgredis.IsNil(getErr) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "check idempotency"))
				return
			}
			if stored != "" {
				replayStored(r.Context(), logg, w, stored, bodyHash)
				return
			}

			rec := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			persistResponse(r.Context(), logg, store, storeKey, rec, bodyHash, ttl)
		})
	}
}

// replayStored writes the previously cached response, or a conflict when the
// key is being reused with a different body.
func replayStored(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, bodyHash string) {
	var cached cachedResponse
	if err := json.Unmarshal([]byte(stored), &cached); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if cached.RequestHash != bodyHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}

	if ct := cached.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(cached.Status)
	if decoded, err := base64.StdEncoding.DecodeString(cached.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

// persistResponse caches the captured response. A storage failure is logged,
// not surfaced; the client already has its response at this point.
func persistResponse(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, rec *bufferedWriter, bodyHash string, ttl time.Duration) {
	cached := cachedResponse{
		Status:      rec.statusOrOK(),
		Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
		RequestHash: bodyHash,
	}
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		cached.Headers = map[string]string{"Content-Type": ct}
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		logStoreError(ctx, logg, "marshal idempotency record", err)
		return
	}
	if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
		logStoreError(ctx, logg, "persist idempotency record", err)
	}
}

func hashRequestBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func chiPattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// bufferedWriter tees the response so it can be cached after the handler
// finishes writing.
type bufferedWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

func (b *bufferedWriter) statusOrOK() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func logStoreError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
