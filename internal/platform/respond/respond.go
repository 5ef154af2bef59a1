// Package respond writes RFC 9457 problem details for failures that happen
// outside huma operations: unknown routes, wrong methods, panics and
// middleware rejections such as rate limiting.
package respond

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"
	schemaPath             = "/schemas/ErrorModel.json"
)

// problem mirrors huma.ErrorModel with the $schema link huma adds to its own
// error responses, so router level errors look the same to clients.
type problem struct {
	Schema string              `json:"$schema,omitempty" cbor:"$schema,omitempty"`
	Title  string              `json:"title,omitempty"   cbor:"title,omitempty"`
	Status int                 `json:"status,omitempty"  cbor:"status,omitempty"`
	Detail string              `json:"detail,omitempty"  cbor:"detail,omitempty"`
	Errors []*huma.ErrorDetail `json:"errors,omitempty"  cbor:"errors,omitempty"`
}

// WriteProblem negotiates JSON or CBOR from the Accept header and writes a
// problem details body with the given status and detail message.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	schema := schemaURL(r)
	p := problem{
		Schema: schema,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	if selectFormat(r.Header.Get("Accept")) == formatCBOR {
		contentType = contentTypeProblemCBOR
		body, err = cbor.Marshal(p)
	} else {
		contentType = contentTypeProblemJSON
		body, err = marshalJSON(p)
	}
	if err != nil {
		logging.LogError(r.Context(), "failed to encode problem details", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	ensureVary(h, "Accept")
	h.Set("Content-Type", contentType)
	h.Set("Link", fmt.Sprintf("<%s>; rel=\"describedBy\"", schema))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NotFoundHandler replaces chi's plain text 404.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, "resource not found")
	}
}

// MethodNotAllowedHandler replaces chi's plain text 405 and lists the
// methods the matched route does support in the Allow header.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allowed := allowedMethods(r); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

var candidateMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}
	var allowed []string
	for _, m := range candidateMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// Recoverer turns a panic into a 500 problem response and logs the stack.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}
				logging.LogError(r.Context(), "panic recovered", panicError(rec),
					zap.ByteString("stack", debug.Stack()),
				)
				if rw.wroteHeader {
					return
				}
				WriteProblem(rw, r, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func schemaURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + schemaPath
}

// ensureVary adds values to the Vary header unless already listed.
func ensureVary(h http.Header, values ...string) {
	var existing []string
	for _, line := range h.Values("Vary") {
		for part := range strings.SplitSeq(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				existing = append(existing, part)
			}
		}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if slices.ContainsFunc(existing, func(e string) bool { return strings.EqualFold(e, v) }) {
			continue
		}
		h.Add("Vary", v)
		existing = append(existing, v)
	}
}

type format int

const (
	formatJSON format = iota
	formatCBOR
)

type acceptRange struct {
	mediaType string
	q         float64
}

// parseAccept splits an Accept header into media ranges with their quality.
// Ranges with a malformed or out of range q are dropped.
func parseAccept(header string) []acceptRange {
	var ranges []acceptRange
	for part := range strings.SplitSeq(header, ",") {
		fields := strings.Split(part, ";")
		mediaType := strings.ToLower(strings.TrimSpace(fields[0]))
		if mediaType == "" || !strings.Contains(mediaType, "/") {
			continue
		}
		q := 1.0
		valid := true
		for _, param := range fields[1:] {
			key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
				continue
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || parsed < 0 || parsed > 1 {
				valid = false
				break
			}
			q = parsed
		}
		if valid {
			ranges = append(ranges, acceptRange{mediaType: mediaType, q: q})
		}
	}
	return ranges
}

// selectFormat picks CBOR only when the client prefers it over JSON.
// JSON wins ties and is the default for empty or unsupported headers.
func selectFormat(header string) format {
	if header == "" {
		return formatJSON
	}
	var jsonQ, cborQ float64
	for _, ar := range parseAccept(header) {
		switch ar.mediaType {
		case "application/cbor", "application/problem+cbor", "application/*+cbor":
			cborQ = max(cborQ, ar.q)
		case "application/json", "application/problem+json", "application/*+json", "application/*", "*/*":
			jsonQ = max(jsonQ, ar.q)
		}
	}
	if cborQ > 0 && cborQ > jsonQ {
		return formatCBOR
	}
	return formatJSON
}
