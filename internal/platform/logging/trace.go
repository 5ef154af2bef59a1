package logging

import (
	"encoding/hex"
	"os"
	"strings"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// Environment variables that may name the Google Cloud project, in
// order of preference.
var projectIDKeys = []string{
	"FIREBASE_PROJECT_ID",
	"GOOGLE_CLOUD_PROJECT",
	"GCP_PROJECT",
	"GCLOUD_PROJECT",
}

// spanContext is the part of a W3C traceparent header that Cloud Logging
// correlates on.
type spanContext struct {
	traceID string
	spanID  string
	sampled bool
}

// parseTraceparent reads "00-<32 hex trace>-<16 hex span>-<2 hex flags>".
// All-zero trace or span IDs are invalid.
func parseTraceparent(header string) (spanContext, bool) {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 {
		return spanContext{}, false
	}
	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if !isHex(version, 2) || version == "ff" || !isHex(flags, 2) {
		return spanContext{}, false
	}
	if !isHex(traceID, 32) || isZero(traceID) || !isHex(spanID, 16) || isZero(spanID) {
		return spanContext{}, false
	}
	b, _ := hex.DecodeString(flags)
	return spanContext{
		traceID: strings.ToLower(traceID),
		spanID:  strings.ToLower(spanID),
		sampled: b[0]&0x01 == 1,
	}, true
}

// resource is the Cloud Logging trace name for the project.
func (sc spanContext) resource(projectID string) string {
	return "projects/" + projectID + "/traces/" + sc.traceID
}

func (sc spanContext) fields(projectID string) []zap.Field {
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", sc.resource(projectID)),
		zap.String("logging.googleapis.com/spanId", sc.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", sc.sampled),
	}
}

// requestTrace derives the trace resource and log fields for a request.
// Without a project or a valid header both are empty.
func requestTrace(header, projectID string) (string, []zap.Field) {
	if projectID == "" {
		return "", nil
	}
	sc, ok := parseTraceparent(header)
	if !ok {
		return "", nil
	}
	return sc.resource(projectID), sc.fields(projectID)
}

func lookupProjectID() string {
	for _, key := range projectIDKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func isZero(s string) bool {
	return strings.Trim(s, "0") == ""
}
